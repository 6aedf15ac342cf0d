package mocks

//go:generate mockgen -destination=./mock_order_submitter.go -package=mocks github.com/rxtech-lab/argo-signals/internal/orchestrator OrderSubmitter
//go:generate mockgen -destination=./mock_decision_recorder.go -package=mocks github.com/rxtech-lab/argo-signals/internal/orchestrator DecisionRecorder
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-signals/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_tick_source.go -package=mocks github.com/rxtech-lab/argo-signals/internal/backtest/datasource TickSource
