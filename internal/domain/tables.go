package domain

var Tables = []interface{}{
	// Catalogue
	&Product{},
	// Payments
	&Payment{},
	// Notifications
	&EventLog{},
}
