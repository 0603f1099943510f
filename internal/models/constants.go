package models

const (
	DateLayout = "2006-01-02"
	SlotLayout = "15:04"
)

const (
	// DefaultScreenID ключ единственного общего экрана
	DefaultScreenID = "default"

	// DefaultScreenTTL время жизни состояния экрана в Redis
	DefaultScreenTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultTurnIntervalMS пауза между репликами сценария
	DefaultTurnIntervalMS = 1500

	// DefaultPaymentDeadlineSeconds время на оплату
	DefaultPaymentDeadlineSeconds = 120

	// DefaultAckDelayMS задержка подтверждения получения чека
	DefaultAckDelayMS = 1500

	// DefaultConfirmationDelayMS задержка сообщения о подтверждении оплаты
	DefaultConfirmationDelayMS = 1000

	// DepositPercent размер предоплаты в процентах
	DepositPercent = 50
)

// DefaultTimeSlots are the bookable slots of a clinic day.
var DefaultTimeSlots = []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00"}
