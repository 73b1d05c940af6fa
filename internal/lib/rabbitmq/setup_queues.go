package rabbitmq

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди уведомлений о подписках:
// окончание пробного периода и окончание оплаченного периода.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.trial", RoutingKey: "trial.ending"},
		{QueueName: "notifications.period", RoutingKey: "period.ending"},
	}
}
