package entsoe

import (
	"fmt"
	"sort"
)

// Zone identifies a bidding zone on the ENTSO-E transparency platform.
type Zone struct {
	// Country is the short code used on the CLI and in sensor names.
	Country string
	// Code is the EIC area code sent as in_Domain/out_Domain.
	Code string
	// Timezone is the canonical IANA timezone of the zone.
	Timezone string
}

// zones maps country codes to their EIC area code and timezone. Covers the
// bidding zones this importer has been used with; extend as needed.
var zones = map[string]Zone{
	"AT":    {Country: "AT", Code: "10YAT-APG------L", Timezone: "Europe/Vienna"},
	"BE":    {Country: "BE", Code: "10YBE----------2", Timezone: "Europe/Brussels"},
	"CH":    {Country: "CH", Code: "10YCH-SWISSGRIDZ", Timezone: "Europe/Zurich"},
	"CZ":    {Country: "CZ", Code: "10YCZ-CEPS-----N", Timezone: "Europe/Prague"},
	"DE_LU": {Country: "DE_LU", Code: "10Y1001A1001A82H", Timezone: "Europe/Berlin"},
	"DK_1":  {Country: "DK_1", Code: "10YDK-1--------W", Timezone: "Europe/Copenhagen"},
	"DK_2":  {Country: "DK_2", Code: "10YDK-2--------M", Timezone: "Europe/Copenhagen"},
	"ES":    {Country: "ES", Code: "10YES-REE------0", Timezone: "Europe/Madrid"},
	"FI":    {Country: "FI", Code: "10YFI-1--------U", Timezone: "Europe/Helsinki"},
	"FR":    {Country: "FR", Code: "10YFR-RTE------C", Timezone: "Europe/Paris"},
	"GB":    {Country: "GB", Code: "10YGB----------A", Timezone: "Europe/London"},
	"GR":    {Country: "GR", Code: "10YGR-HTSO-----Y", Timezone: "Europe/Athens"},
	"HU":    {Country: "HU", Code: "10YHU-MAVIR----U", Timezone: "Europe/Budapest"},
	"IT_NORD": {
		Country: "IT_NORD", Code: "10Y1001A1001A73I", Timezone: "Europe/Rome",
	},
	"NL": {Country: "NL", Code: "10YNL----------L", Timezone: "Europe/Amsterdam"},
	"NO_2": {
		Country: "NO_2", Code: "10YNO-2--------T", Timezone: "Europe/Oslo",
	},
	"PL": {Country: "PL", Code: "10YPL-AREA-----S", Timezone: "Europe/Warsaw"},
	"PT": {Country: "PT", Code: "10YPT-REN------W", Timezone: "Europe/Lisbon"},
	"SE_4": {
		Country: "SE_4", Code: "10Y1001A1001A47J", Timezone: "Europe/Stockholm",
	},
	"SK": {Country: "SK", Code: "10YSK-SEPS-----K", Timezone: "Europe/Bratislava"},
}

// LookupZone resolves a country code to its bidding zone.
func LookupZone(countryCode string) (Zone, error) {
	z, ok := zones[countryCode]
	if !ok {
		return Zone{}, fmt.Errorf("unknown country code %q, known codes: %v", countryCode, ZoneCodes())
	}
	return z, nil
}

// ZoneCodes lists the known country codes, sorted.
func ZoneCodes() []string {
	codes := make([]string, 0, len(zones))
	for c := range zones {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
