package models

import "time"

type Member struct {
	ID        int64
	GoogleID  string
	Email     string
	Nickname  string
	LangCode  LangCode
	CreatedAt time.Time
}

// GoogleProfile is the subset of the userinfo response the login flow relies on.
type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type LangCode string

const DefaultLangCode LangCode = "KO"

var langCodes = map[LangCode]struct{}{
	"BG": {}, "CS": {}, "DA": {}, "DE": {}, "EL": {}, "EN": {}, "ES": {}, "ET": {}, "FI": {}, "FR": {},
	"HU": {}, "ID": {}, "IT": {}, "JA": {}, "KO": {}, "LT": {}, "LV": {}, "NB": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "RU": {}, "SK": {}, "SL": {}, "SV": {}, "TR": {}, "UK": {}, "ZH": {},
}

func (c LangCode) Valid() bool {
	_, ok := langCodes[c]
	return ok
}

const EventMemberRegistered = "member_registered"

type MemberRegisteredEvent struct {
	Type         string    `json:"type"`
	MemberID     int64     `json:"member_id"`
	GoogleID     string    `json:"google_id"`
	Email        string    `json:"email"`
	LangCode     LangCode  `json:"lang_code"`
	RegisteredAt time.Time `json:"registered_at"`
}
