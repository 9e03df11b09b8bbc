package enums

// Role distinguishes the actor classes the API recognizes.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleAdmin:
		return true
	default:
		return false
	}
}

// OrderStatus tracks an order through its lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// QuoteStatus marks whether a saved quote has been converted to an order.
type QuoteStatus string

const (
	QuoteStatusOpen      QuoteStatus = "open"
	QuoteStatusConverted QuoteStatus = "converted"
	QuoteStatusExpired   QuoteStatus = "expired"
)

func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusOpen, QuoteStatusConverted, QuoteStatusExpired:
		return true
	default:
		return false
	}
}

// ReturnStatus tracks a return request decision.
type ReturnStatus string

const (
	ReturnStatusRequested ReturnStatus = "requested"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
)

func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusRequested, ReturnStatusApproved, ReturnStatusRejected:
		return true
	default:
		return false
	}
}

// LeadStatus tracks sales lead progression.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusClosed    LeadStatus = "closed"
)

func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusClosed:
		return true
	default:
		return false
	}
}

// OTPPurpose names the flow an issued one-time code gates.
type OTPPurpose string

const (
	OTPPurposeVerify OTPPurpose = "verify"
	OTPPurposeReset  OTPPurpose = "reset"
)

func (p OTPPurpose) IsValid() bool {
	switch p {
	case OTPPurposeVerify, OTPPurposeReset:
		return true
	default:
		return false
	}
}

// DocumentType keys the per-entity sequence counters.
type DocumentType string

const (
	DocumentTypeOrder    DocumentType = "order"
	DocumentTypeQuote    DocumentType = "quote"
	DocumentTypeLead     DocumentType = "lead"
	DocumentTypeReturn   DocumentType = "return"
	DocumentTypeCustomer DocumentType = "customer"
)

func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentTypeOrder, DocumentTypeQuote, DocumentTypeLead, DocumentTypeReturn, DocumentTypeCustomer:
		return true
	default:
		return false
	}
}
