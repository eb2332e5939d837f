// Package domain contains the core record and session types of the
// consultation service.
package domain

import "strconv"

// Patient is one row of the patient registry. PhoneNumber is the natural key;
// UID is the lookup key embedded in invite links.
type Patient struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	AgentName   string `json:"agent_name"`
}

// PatientFields is the canonical column order of the patients table.
var PatientFields = []string{"uid", "name", "phone_number", "agent_name"}

// Row flattens the patient into a column mapping.
func (p Patient) Row() map[string]string {
	return map[string]string{
		"uid":          p.UID,
		"name":         p.Name,
		"phone_number": p.PhoneNumber,
		"agent_name":   p.AgentName,
	}
}

// PatientFromRow rebuilds a patient from a column mapping. Missing columns
// become empty strings.
func PatientFromRow(row map[string]string) Patient {
	return Patient{
		UID:         row["uid"],
		Name:        row["name"],
		PhoneNumber: row["phone_number"],
		AgentName:   row["agent_name"],
	}
}

// ConversationSummary is an append-only record of one finished call.
type ConversationSummary struct {
	StartTime       string  `json:"start_time"`
	DurationMinutes float64 `json:"duration_minutes"`
	PhoneNumber     string  `json:"phone_number"`
	UID             string  `json:"uid"`
	Summary         string  `json:"summary"`
	DoctorName      string  `json:"doctor_name"`
	UserName        string  `json:"user_name"`
}

// ConversationFields is the canonical column order of the conversations table.
var ConversationFields = []string{
	"start_time", "duration_minutes", "phone_number", "uid",
	"summary", "doctor_name", "user_name",
}

// Row flattens the summary into a column mapping.
func (c ConversationSummary) Row() map[string]string {
	return map[string]string{
		"start_time":       c.StartTime,
		"duration_minutes": strconv.FormatFloat(c.DurationMinutes, 'f', -1, 64),
		"phone_number":     c.PhoneNumber,
		"uid":              c.UID,
		"summary":          c.Summary,
		"doctor_name":      c.DoctorName,
		"user_name":        c.UserName,
	}
}

// ConversationFromRow rebuilds a summary record. An unparsable duration
// reads back as zero.
func ConversationFromRow(row map[string]string) ConversationSummary {
	minutes, err := strconv.ParseFloat(row["duration_minutes"], 64)
	if err != nil {
		minutes = 0
	}
	return ConversationSummary{
		StartTime:       row["start_time"],
		DurationMinutes: minutes,
		PhoneNumber:     row["phone_number"],
		UID:             row["uid"],
		Summary:         row["summary"],
		DoctorName:      row["doctor_name"],
		UserName:        row["user_name"],
	}
}
