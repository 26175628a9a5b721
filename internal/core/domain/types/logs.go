package types

const (
	ActionServiceStarted   = "service_started"
	ActionGracefulShutdown = "graceful_shutdown"
	ActionDBConnected      = "db_connected"
	ActionDBConnectFailed  = "db_connect_failed"
	ActionDBQueryFailed    = "db_query_failed"

	// Lifecycle actions
	ActionOrderCreated      = "order_created"
	ActionTransitionApplied = "transition_applied"
	ActionTransitionRefused = "transition_refused"
	ActionComponentReset    = "component_reset"
	ActionValidationFailed  = "validation_failed"

	// Audit sweep actions
	ActionSweepStarted           = "sweep_started"
	ActionSweepCompleted         = "sweep_completed"
	ActionSweepSkipped           = "sweep_skipped"
	ActionSweepCancelled         = "sweep_cancelled"
	ActionSweepProgress          = "sweep_progress"
	ActionViolationDetected      = "violation_detected"
	ActionNotificationSent       = "notification_sent"
	ActionNotificationSuppressed = "notification_suppressed"
	ActionDispatchFailed         = "dispatch_failed"
	ActionRecordFault            = "record_fault"
	ActionPolicyMissing          = "policy_missing"
	ActionPolicyReloadFailed     = "policy_reload_failed"

	// RabbitMQ-related actions
	ActionRabbitMQConnecting      = "rabbitmq_connecting"
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitMQConnectFailed   = "rabbitmq_connect_failed"
	ActionRabbitMQDisconnected    = "rabbitmq_disconnected"
	ActionRabbitMQReconnecting    = "rabbitmq_reconnecting"
	ActionRabbitMQReconnected     = "rabbitmq_reconnected"
	ActionRabbitMQReconnectFailed = "rabbitmq_reconnect_failed"
	ActionRabbitMQSetup           = "rabbitmq_setup"
	ActionRabbitMQSetupComplete   = "rabbitmq_setup_complete"
	ActionRabbitMQSetupFailed     = "rabbitmq_setup_failed"
	ActionRabbitMQConsumeStarted  = "rabbitmq_consume_started"
	ActionRabbitMQConsumeFailed   = "rabbitmq_consume_failed"
	ActionRabbitmqPublishFailed   = "rabbitmq_publish_failed"
	ActionRabbitMQAckFailed       = "rabbitmq_ack_failed"
	ActionRabbitMQNackFailed      = "rabbitmq_nack_failed"

	// Mailer actions
	ActionMailReceived            = "mail_received"
	ActionMailDelivered           = "mail_delivered"
	ActionMessageProcessingFailed = "message_processing_failed"

	// HTTP actions
	ActionRequestReceived = "request_received"
	ActionResponseFailed  = "response_failed"
)
