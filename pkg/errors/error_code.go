package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidSignal        ErrorCode = 102
	ErrCodeInvalidOrder         ErrorCode = 103
	ErrCodeInvalidLeg           ErrorCode = 104
	ErrCodeInvalidSymbol        ErrorCode = 105
	ErrCodeInvalidLimits        ErrorCode = 106
	ErrCodeMissingParameter     ErrorCode = 107

	// Market data errors (200-299)
	ErrCodeStaleTick         ErrorCode = 200
	ErrCodeUnknownSymbol     ErrorCode = 201
	ErrCodeSnapshotNotFound  ErrorCode = 202
	ErrCodeFeedUnavailable   ErrorCode = 203
	ErrCodeFeedParseFailed   ErrorCode = 204
	ErrCodeCorrelationWindow ErrorCode = 205

	// Signal errors (300-399)
	ErrCodeSignalExpired      ErrorCode = 300
	ErrCodeSignalQueueFull    ErrorCode = 301
	ErrCodeStrategyNotFound   ErrorCode = 302
	ErrCodeStrategyDuplicate  ErrorCode = 303
	ErrCodeStrategyConfig     ErrorCode = 304
	ErrCodeStrategyEvaluation ErrorCode = 305
	ErrCodeStrategyVersion    ErrorCode = 306

	// Risk errors (400-499)
	ErrCodeRiskHalted        ErrorCode = 400
	ErrCodeRiskConcentration ErrorCode = 401
	ErrCodeRiskPositionLimit ErrorCode = 402
	ErrCodeRiskDailyLoss     ErrorCode = 403
	ErrCodeRiskBudget        ErrorCode = 404
	ErrCodeRiskQueueFull     ErrorCode = 405

	// Position and order errors (500-599)
	ErrCodePositionNotFound   ErrorCode = 500
	ErrCodeOrderNotFound      ErrorCode = 501
	ErrCodeInvalidTransition  ErrorCode = 502
	ErrCodePartialFillTimeout ErrorCode = 503
	ErrCodeBrokerUnavailable  ErrorCode = 504
	ErrCodeUnwindFailed       ErrorCode = 505
	ErrCodeDuplicateFill      ErrorCode = 506

	// Invariant violations (600-699)
	ErrCodeInvariantViolation ErrorCode = 600

	// Engine errors (700-799)
	ErrCodeEngineNotInitialized ErrorCode = 700
	ErrCodeEngineInitFailed     ErrorCode = 701
	ErrCodeEngineNoFeed         ErrorCode = 702
	ErrCodeEngineNoGateway      ErrorCode = 703
	ErrCodeEngineNoStrategies   ErrorCode = 704
	ErrCodeEngineAlreadyRunning ErrorCode = 705

	// Audit store errors (800-899)
	ErrCodeAuditInitFailed  ErrorCode = 800
	ErrCodeAuditWriteFailed ErrorCode = 801
	ErrCodeAuditQueryFailed ErrorCode = 802
)
