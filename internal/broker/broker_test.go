package broker

var (
	_ Subscriber = (*MQTTSubscriber)(nil)
	_ Subscriber = (*KinesisSubscriber)(nil)
)
