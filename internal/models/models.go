package models

// DefaultSeedBookings is the booking list every demo session starts with.
func DefaultSeedBookings() []Booking {
	return []Booking{
		{ID: 1, Date: "2025-11-25", Time: "10:00", Client: "María López", Phone: "+591 7123-4567", Service: "Limpieza dental", Status: StatusConfirmed},
		{ID: 2, Date: "2025-11-25", Time: "14:00", Client: "Juan Pérez", Phone: "+591 7234-5678", Service: "Consulta general", Status: StatusPending},
		{ID: 3, Date: "2025-11-26", Time: "09:00", Client: "Ana Martínez", Phone: "+591 7345-6789", Service: "Ortodoncia", Status: StatusConfirmed},
		{ID: 4, Date: "2025-11-27", Time: "11:00", Client: "Carlos Rojas", Phone: "+591 7456-7890", Service: "Endodoncia", Status: StatusConfirmed},
		{ID: 5, Date: "2025-11-28", Time: "15:00", Client: "Lucía Fernández", Phone: "+591 7567-8901", Service: "Blanqueamiento", Status: StatusPending},
	}
}

// Greeting is the first message of every chat log.
func Greeting() Message {
	return Message{
		Sender: SenderBot,
		Text:   "¡Hola! Bienvenido a nuestra clínica. ¿En qué puedo ayudarte?",
		Time:   "10:30",
	}
}

// CloneBookings returns a deep copy of list.
func CloneBookings(list []Booking) []Booking {
	if list == nil {
		return nil
	}
	out := make([]Booking, len(list))
	copy(out, list)
	return out
}
