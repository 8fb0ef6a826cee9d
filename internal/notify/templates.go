package notify

import (
	"fmt"
	"strconv"
	"strings"

	"rentdesk/server/internal/models"
)

// LeadURL is the admin deep link of a lead
func LeadURL(adminBaseURL string, lead models.Lead) string {
	return strings.TrimRight(adminBaseURL, "/") + "/admin/leads/" + lead.ID.String()
}

// leadFields lists the non-empty lead fields as label/value pairs, in display order
func leadFields(lead models.Lead) [][2]string {
	fields := [][2]string{
		{"Name", lead.Name},
		{"Email", lead.Email},
		{"Phone", lead.Phone},
		{"Type", string(lead.LeadType)},
		{"Source", lead.Source},
		{"Page", lead.SourcePage},
		{"Address", lead.Address},
		{"City", lead.City},
		{"Property type", lead.PropertyType},
	}
	if lead.Size != nil {
		fields = append(fields, [2]string{"Size", strconv.Itoa(*lead.Size) + " m²"})
	}
	if lead.Bedrooms != nil {
		fields = append(fields, [2]string{"Bedrooms", strconv.Itoa(*lead.Bedrooms)})
	}
	if lead.Furnished != nil {
		furnished := "No"
		if *lead.Furnished {
			furnished = "Yes"
		}
		fields = append(fields, [2]string{"Furnished", furnished})
	}
	fields = append(fields,
		[2]string{"Available from", lead.AvailableFrom},
		[2]string{"Desired rent", lead.DesiredRent},
		[2]string{"Estimated rent", lead.EstimatedRent},
		[2]string{"Message", lead.Message},
	)

	out := fields[:0]
	for _, f := range fields {
		if f[1] != "" {
			out = append(out, f)
		}
	}
	return out
}

// LeadEmail renders the subject and plain-text body of a new lead e-mail
func LeadEmail(lead models.Lead, adminBaseURL string) (subject, body string) {
	subject = fmt.Sprintf("New lead: %s (%s)", lead.Name, lead.LeadType)

	var sb strings.Builder
	sb.WriteString("A new lead was submitted on the website.\n\n")
	for _, f := range leadFields(lead) {
		fmt.Fprintf(&sb, "%s: %s\n", f[0], f[1])
	}
	fmt.Fprintf(&sb, "\nOpen in CRM: %s\n", LeadURL(adminBaseURL, lead))
	return subject, sb.String()
}
