package conversation

import (
	"fmt"

	"citabot/internal/models"
)

// Turn is one scripted chat line.
type Turn struct {
	Sender models.Sender
	Text   string
	Time   string
	ShowQR bool

	// RequestsPayment marks the turn after which the player waits for a
	// payment instead of continuing.
	RequestsPayment bool
	IsImage         bool
}

func (t Turn) message(runID string) models.Message {
	return models.Message{
		Sender:  t.Sender,
		Text:    t.Text,
		Time:    t.Time,
		ShowQR:  t.ShowQR,
		IsImage: t.IsImage,
		RunID:   runID,
	}
}

const (
	requestedDate    = "2025-11-25"
	requestedSlot    = "15:00"
	requestedService = "Consulta general"
	serviceCost      = 200 // Bs.
)

// DefaultScript is the booking conversation replayed turn by turn, up to
// the payment request.
func DefaultScript() []Turn {
	deposit := serviceCost * models.DepositPercent / 100
	qr := fmt.Sprintf(
		"¡Excelente!\n\nTu cita:\nFecha: 25 de noviembre\nHora: %s\nServicio: %s\nCosto: Bs. %d\n\nPara confirmar tu reserva, necesitamos un adelanto del %d%% (Bs. %d).\n\nPor favor realiza el pago con el siguiente QR:",
		requestedSlot, requestedService, serviceCost, models.DepositPercent, deposit,
	)

	return []Turn{
		{Sender: models.SenderUser, Text: "Hola, quiero agendar una cita", Time: "10:31"},
		{Sender: models.SenderBot, Text: "¡Perfecto! Te mostraré los horarios disponibles. ¿Para qué fecha te gustaría agendar?", Time: "10:31"},
		{Sender: models.SenderUser, Text: "25 de noviembre", Time: "10:32"},
		{Sender: models.SenderBot, Text: "Horarios disponibles para el 25 de noviembre:\n\n09:00 AM\n11:00 AM\n15:00 PM\n16:00 PM\n17:00 PM\n\n¿Cuál prefieres?", Time: "10:32"},
		{Sender: models.SenderUser, Text: requestedSlot, Time: "10:33"},
		{
			Sender:          models.SenderBot,
			Text:            qr,
			Time:            "10:33",
			ShowQR:          true,
			RequestsPayment: true,
		},
	}
}

var (
	receiptTurn = Turn{Sender: models.SenderUser, Text: "[Imagen del comprobante]", Time: "10:34", IsImage: true}

	acknowledgementTurn = Turn{
		Sender: models.SenderBot,
		Text:   "Gracias! Hemos recibido tu comprobante de pago.\n\nEstamos validando tu pago. Te confirmaremos tu cita en breve.",
		Time:   "10:34",
	}

	timeoutTurn = Turn{
		Sender: models.SenderBot,
		Text:   "El tiempo para realizar el pago ha expirado.\n\nTu reserva fue cancelada y el horario quedó liberado. Si deseas agendar nuevamente, escríbenos.",
		Time:   "10:35",
	}
)

// RequestedBooking is the booking the scripted client asks for. It is
// created pending once the receipt is acknowledged.
func RequestedBooking() models.Booking {
	return models.Booking{
		Date:    requestedDate,
		Time:    requestedSlot,
		Client:  "Cliente Nuevo",
		Phone:   "+591 7890-1234",
		Service: requestedService,
		Status:  models.StatusPending,
	}
}
