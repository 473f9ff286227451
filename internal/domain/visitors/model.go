package visitors

import "time"

type VIPLevel string

const (
	VIPBronze   VIPLevel = "bronze"
	VIPSilver   VIPLevel = "silver"
	VIPGold     VIPLevel = "gold"
	VIPPlatinum VIPLevel = "platinum"
)

func (l VIPLevel) Valid() bool {
	switch l {
	case VIPBronze, VIPSilver, VIPGold, VIPPlatinum:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

// Valid acepta vacío: el género es opcional.
func (g Gender) Valid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

type Source string

const (
	SourceWebsite       Source = "website"
	SourceWalkIn        Source = "walk_in"
	SourceReferral      Source = "referral"
	SourceSocialMedia   Source = "social_media"
	SourceAdvertisement Source = "advertisement"
	SourceOther         Source = "other"
)

func (s Source) Valid() bool {
	switch s {
	case SourceWebsite, SourceWalkIn, SourceReferral, SourceSocialMedia, SourceAdvertisement, SourceOther:
		return true
	}
	return false
}

type MembershipType string

const (
	MembershipBasic     MembershipType = "basic"
	MembershipPremium   MembershipType = "premium"
	MembershipFamily    MembershipType = "family"
	MembershipCorporate MembershipType = "corporate"
	MembershipLifetime  MembershipType = "lifetime"
)

func (m MembershipType) Valid() bool {
	switch m {
	case MembershipBasic, MembershipPremium, MembershipFamily, MembershipCorporate, MembershipLifetime:
		return true
	}
	return false
}

type CommunicationMethod string

const (
	CommunicationEmail CommunicationMethod = "email"
	CommunicationSMS   CommunicationMethod = "sms"
	CommunicationPhone CommunicationMethod = "phone"
	CommunicationMail  CommunicationMethod = "mail"
)

func (c CommunicationMethod) Valid() bool {
	switch c {
	case CommunicationEmail, CommunicationSMS, CommunicationPhone, CommunicationMail:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street,omitempty" bson:"street,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty" bson:"zip_code,omitempty"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"name,omitempty" bson:"name,omitempty"`
	Relationship string `json:"relationship,omitempty" bson:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email        string `json:"email,omitempty" bson:"email,omitempty"`
}

type Preferences struct {
	Interests              []string            `json:"interests" bson:"interests"`
	AccessibilityNeeds     []string            `json:"accessibility_needs" bson:"accessibility_needs"`
	Language               string              `json:"language" bson:"language"`
	CommunicationMethod    CommunicationMethod `json:"communication_method" bson:"communication_method"`
	NewsletterSubscription bool                `json:"newsletter_subscription" bson:"newsletter_subscription"`
	PromotionalEmails      bool                `json:"promotional_emails" bson:"promotional_emails"`
}

type Membership struct {
	Type               MembershipType `json:"type" bson:"type"`
	StartDate          time.Time      `json:"start_date" bson:"start_date"`
	EndDate            time.Time      `json:"end_date" bson:"end_date"`
	IsActive           bool           `json:"is_active" bson:"is_active"`
	Benefits           []string       `json:"benefits,omitempty" bson:"benefits,omitempty"`
	DiscountPercentage float64        `json:"discount_percentage" bson:"discount_percentage"`
	AutoRenewal        bool           `json:"auto_renewal" bson:"auto_renewal"`
}

// Spending es el gasto de una visita. Total es el que suma al agregado.
type Spending struct {
	Food       float64 `json:"food" bson:"food"`
	Souvenirs  float64 `json:"souvenirs" bson:"souvenirs"`
	Activities float64 `json:"activities" bson:"activities"`
	Total      float64 `json:"total" bson:"total"`
}

type ExhibitVisit struct {
	ExhibitID string     `json:"exhibit_id" bson:"exhibit_id"`
	VisitTime *time.Time `json:"visit_time,omitempty" bson:"visit_time,omitempty"`
	Duration  int        `json:"duration,omitempty" bson:"duration,omitempty"` // minutos
}

type Feedback struct {
	Rating      int    `json:"rating,omitempty" bson:"rating,omitempty"`
	Comments    string `json:"comments,omitempty" bson:"comments,omitempty"`
	Suggestions string `json:"suggestions,omitempty" bson:"suggestions,omitempty"`
}

// Visit es una entrada del historial. El historial solo crece.
type Visit struct {
	ID              string         `json:"id" bson:"id"`
	VisitDate       time.Time      `json:"visit_date" bson:"visit_date"`
	EntryTime       *time.Time     `json:"entry_time,omitempty" bson:"entry_time,omitempty"`
	ExitTime        *time.Time     `json:"exit_time,omitempty" bson:"exit_time,omitempty"`
	Duration        int            `json:"duration" bson:"duration"` // minutos, 0 si no se informó
	ExhibitsVisited []ExhibitVisit `json:"exhibits_visited" bson:"exhibits_visited"`
	Spending        Spending       `json:"spending" bson:"spending"`
	Feedback        *Feedback      `json:"feedback,omitempty" bson:"feedback,omitempty"`
	GroupSize       int            `json:"group_size" bson:"group_size"`
	Weather         string         `json:"weather,omitempty" bson:"weather,omitempty"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
}

// TicketSummary es la copia del ticket que queda en el visitante al comprar.
type TicketSummary struct {
	TicketID      string    `json:"ticket_id" bson:"ticket_id"`
	Type          string    `json:"type" bson:"type"`
	Price         float64   `json:"price" bson:"price"`
	PurchaseDate  time.Time `json:"purchase_date" bson:"purchase_date"`
	VisitDate     time.Time `json:"visit_date" bson:"visit_date"`
	PaymentMethod string    `json:"payment_method" bson:"payment_method"`
}

type Visitor struct {
	ID                  string            `json:"id" bson:"_id"`
	FirstName           string            `json:"first_name" bson:"first_name"`
	LastName            string            `json:"last_name" bson:"last_name"`
	Email               string            `json:"email" bson:"email"`
	Phone               string            `json:"phone,omitempty" bson:"phone,omitempty"`
	DateOfBirth         *time.Time        `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Gender              Gender            `json:"gender,omitempty" bson:"gender,omitempty"`
	Address             Address           `json:"address" bson:"address"`
	EmergencyContact    *EmergencyContact `json:"emergency_contact,omitempty" bson:"emergency_contact,omitempty"`
	Preferences         Preferences       `json:"preferences" bson:"preferences"`
	Tickets             []TicketSummary   `json:"tickets" bson:"tickets"`
	VisitHistory        []Visit           `json:"visit_history" bson:"visit_history"`
	Membership          *Membership       `json:"membership,omitempty" bson:"membership,omitempty"`
	LoyaltyPoints       int               `json:"loyalty_points" bson:"loyalty_points"`
	SpecialNeeds        []string          `json:"special_needs" bson:"special_needs"`
	DietaryRestrictions []string          `json:"dietary_restrictions" bson:"dietary_restrictions"`
	Allergies           []string          `json:"allergies" bson:"allergies"`
	Notes               string            `json:"notes,omitempty" bson:"notes,omitempty"`
	IsVIP               bool              `json:"is_vip" bson:"is_vip"`
	Source              Source            `json:"source" bson:"source"`
	IsActive            bool              `json:"is_active" bson:"is_active"`
	RegistrationDate    time.Time         `json:"registration_date" bson:"registration_date"`

	// Agregados: los calcula Recalculate a partir de VisitHistory.
	TotalVisits          int        `json:"total_visits" bson:"total_visits"`
	TotalSpent           float64    `json:"total_spent" bson:"total_spent"`
	AverageVisitDuration int        `json:"average_visit_duration" bson:"average_visit_duration"`
	VIPLevel             VIPLevel   `json:"vip_level" bson:"vip_level"`
	LastVisitDate        *time.Time `json:"last_visit_date,omitempty" bson:"last_visit_date,omitempty"`

	Version   int64     `json:"version" bson:"version"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (v Visitor) FullName() string {
	return v.FirstName + " " + v.LastName
}

// IsMember: membresía activa y no vencida a la fecha now.
func (v Visitor) IsMember(now time.Time) bool {
	return v.Membership != nil && v.Membership.IsActive && !now.After(v.Membership.EndDate)
}

// Age devuelve -1 si no hay fecha de nacimiento.
func (v Visitor) Age(now time.Time) int {
	if v.DateOfBirth == nil {
		return -1
	}
	b := v.DateOfBirth.In(now.Location())
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age
}
