package types

import "github.com/google/uuid"

// ResponseFormat tells the frontend how the answer is organized.
type ResponseFormat string

const (
	FormatStructured   ResponseFormat = "structured"
	FormatContextual   ResponseFormat = "contextual"
	FormatConfirmation ResponseFormat = "confirmation"
)

// TurnDecision is the resolved outcome of a single turn through the state
// machine. It replaces the conditionally-bound flags of earlier iterations: a
// turn always carries exactly one decision.
type TurnDecision string

const (
	DecisionFormSubmission        TurnDecision = "form_submission"
	DecisionConfirmedChange       TurnDecision = "confirmed_change"
	DecisionRejectedChange        TurnDecision = "rejected_change"
	DecisionClarification         TurnDecision = "clarification"
	DecisionExplicitChange        TurnDecision = "explicit_change"
	DecisionImplicitChangePending TurnDecision = "implicit_change_pending"
	DecisionSameDestination       TurnDecision = "same_destination"
	DecisionFirstDestination      TurnDecision = "first_destination"
	DecisionChatNoDestination     TurnDecision = "chat_no_destination"
)

// StructuredMode reports whether the decision produces the 5-section answer
// format rather than a direct contextual reply.
func (d TurnDecision) StructuredMode() bool {
	switch d {
	case DecisionFormSubmission, DecisionConfirmedChange, DecisionExplicitChange,
		DecisionFirstDestination, DecisionChatNoDestination:
		return true
	}
	return false
}

// Terminal reports whether the turn ends without an LLM call.
func (d TurnDecision) Terminal() bool {
	return d == DecisionClarification || d == DecisionImplicitChangePending
}

// TravelQuery is the inbound turn request. Destination is only set for form
// submissions; SessionID is nil on the first turn.
type TravelQuery struct {
	Question    string     `json:"question"`
	Destination *string    `json:"destination,omitempty"`
	SessionID   *uuid.UUID `json:"session_id,omitempty"`
}

// DestinationConfirmation is the explicit confirm/reject request for a
// proposed destination change.
type DestinationConfirmation struct {
	SessionID        uuid.UUID `json:"session_id"`
	NewDestination   string    `json:"new_destination"`
	Confirmed        bool      `json:"confirmed"`
	OriginalQuestion string    `json:"original_question,omitempty"`
}

// DestinationSearchQuery is the partial text the user is typing into the
// destination field.
type DestinationSearchQuery struct {
	Query string `json:"query"`
}

// DestinationsResponse carries suggested destinations, "Ciudad, País" each.
type DestinationsResponse struct {
	Destinations []string `json:"destinations"`
}

// Photo is one Unsplash search result.
type Photo struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	URLSmall    string `json:"url_small"`
	URLRegular  string `json:"url_regular"`
	Author      string `json:"author"`
	AuthorLink  string `json:"author_link"`
	Link        string `json:"link"`
}

// WeatherSnapshot is the formatted current weather for a destination city.
type WeatherSnapshot struct {
	City          string  `json:"city"`
	Country       string  `json:"country"`
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feels_like"`
	Description   string  `json:"description"`
	Humidity      int     `json:"humidity"`
	WindSpeedKmh  float64 `json:"wind_speed_kmh"`
	WindDirection int     `json:"wind_direction"`
	Pressure      int     `json:"pressure"`
	VisibilityKm  float64 `json:"visibility_km,omitempty"`
	Icon          string  `json:"icon"`
}

// ExchangeRate relates USD and the destination country's currency.
type ExchangeRate struct {
	CurrencyCode string  `json:"currency_code"`
	USDToDest    float64 `json:"usd_to_dest"`
	DestToUSD    float64 `json:"dest_to_usd"`
	LastUpdated  string  `json:"last_updated,omitempty"`
}

// TimeDifference relates the destination timezone to UTC.
type TimeDifference struct {
	Timezone         string  `json:"timezone"`
	DestinationTime  string  `json:"destination_time"`
	LocalTime        string  `json:"local_time"`
	DifferenceHours  float64 `json:"difference_hours"`
	DifferenceString string  `json:"difference_string"`
}

// RealtimeInfo bundles the live lookups for a destination.
type RealtimeInfo struct {
	Destination    string           `json:"destination"`
	City           string           `json:"city"`
	CountryCode    string           `json:"country_code,omitempty"`
	ExchangeRate   *ExchangeRate    `json:"exchange_rate,omitempty"`
	TimeDifference *TimeDifference  `json:"time_difference,omitempty"`
	Weather        *WeatherSnapshot `json:"weather,omitempty"`
}

// TravelResponse is the outbound turn result. Enrichment fields are absent
// whenever the corresponding provider could not produce data.
type TravelResponse struct {
	Answer              string         `json:"answer"`
	SessionID           uuid.UUID      `json:"session_id"`
	Weather             *string        `json:"weather,omitempty"`
	Photos              []Photo        `json:"photos,omitempty"`
	Realtime            *RealtimeInfo  `json:"realtime,omitempty"`
	DetectedDestination *string        `json:"detected_destination,omitempty"`
	CurrentDestination  *string        `json:"current_destination,omitempty"`
	ResponseFormat      ResponseFormat `json:"response_format"`
	Decision            TurnDecision   `json:"-"`
}
