package estimate

import "strings"

// ParseAttributes builds Attributes from raw form values. Size and bedrooms
// take the leading digits of the input ("85m2" is 85) and fall back to their
// defaults when there are none.
func ParseAttributes(zone, size, bedrooms string, furnished bool) Attributes {
	return Attributes{
		CityZone:  zone,
		SizeSqm:   ParsePositiveInt(size, DefaultSizeSqm),
		Bedrooms:  ParsePositiveInt(bedrooms, DefaultBedrooms),
		Furnished: furnished,
	}
}

// ParsePositiveInt returns the integer formed by the leading digits of s, or
// fallback when that integer is missing or zero.
func ParsePositiveInt(s string, fallback int) int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")

	n := 0
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		// Values this large are not a living area
		if digits >= 9 {
			return fallback
		}
		n = n*10 + int(r-'0')
		digits++
	}
	if n <= 0 {
		return fallback
	}
	return n
}
