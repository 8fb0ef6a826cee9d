package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// looseString accepts a JSON string, number or boolean. Form fields such as
// size arrive either way depending on the page that posts them.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	*s = looseString(data)
	return nil
}

func (s looseString) String() string {
	return strings.TrimSpace(string(s))
}

// optionalInt returns nil for an empty field and the leading digits otherwise
func (s looseString) optionalInt() *int {
	v := s.String()
	if v == "" {
		return nil
	}
	end := 0
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// optionalBool understands true/false as well as yes/no from select boxes
func (s looseString) optionalBool() *bool {
	var b bool
	switch strings.ToLower(s.String()) {
	case "true", "yes", "ja", "1", "on":
		b = true
	case "false", "no", "nee", "0", "off":
		b = false
	default:
		return nil
	}
	return &b
}

type estimateRequest struct {
	CityZone  string      `json:"city_zone"`
	SizeSqm   looseString `json:"size_sqm"`
	Bedrooms  looseString `json:"bedrooms"`
	Furnished looseString `json:"furnished"`
}

type calculatorRequest struct {
	Property struct {
		estimateRequest
		Address       string      `json:"address"`
		City          string      `json:"city"`
		PropertyType  string      `json:"property_type"`
		AvailableFrom string      `json:"available_from"`
		DesiredRent   looseString `json:"desired_rent"`
	} `json:"property"`
	Contact struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Message    string `json:"message"`
		SourcePage string `json:"source_page"`
		Consent    bool   `json:"consent"`
	} `json:"contact"`
}

// leadRequest is the payload of the generic lead endpoint
type leadRequest struct {
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	LeadType      string      `json:"leadType"`
	Source        string      `json:"source"`
	SourcePage    string      `json:"sourcePage"`
	Message       string      `json:"message"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	PropertyType  string      `json:"propertyType"`
	Size          looseString `json:"size"`
	Bedrooms      looseString `json:"bedrooms"`
	Furnished     looseString `json:"furnished"`
	AvailableFrom string      `json:"availableFrom"`
	DesiredRent   looseString `json:"desiredRent"`
	EstimatedRent string      `json:"estimatedRent"`
}

type updateLeadRequest struct {
	Status       *string `json:"status"`
	AssignedToID *string `json:"assignedToId"`
}

type noteRequest struct {
	Content string `json:"content"`
}

type analyticsRequest struct {
	Type     string          `json:"type"`
	Page     string          `json:"page"`
	Metadata json.RawMessage `json:"metadata"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type listingRequest struct {
	Title       string `json:"title"`
	Address     string `json:"address"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
	Zone        string `json:"zone"`
	Rent        int    `json:"rent"`
	SizeSqm     int    `json:"size_sqm"`
	Bedrooms    int    `json:"bedrooms"`
	Furnished   bool   `json:"furnished"`
	Status      string `json:"status"`
	Description string `json:"description"`
}
