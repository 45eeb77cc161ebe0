package comicinfo

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// BookInfoKey is the top-level key of a ComicBookInfo zip comment.
const BookInfoKey = "ComicBookInfo/1.0"

// writerRoles are credit roles mapped onto Metadata.Writer.
var writerRoles = []string{"writer", "plotter", "scripter"}

type bookInfoCredit struct {
	Person  string `json:"person"`
	Role    string `json:"role"`
	Primary bool   `json:"primary,omitempty"`
}

type bookInfo struct {
	Title            string           `json:"title,omitempty"`
	Series           string           `json:"series,omitempty"`
	Volume           json.RawMessage  `json:"volume,omitempty"`
	PublicationYear  json.RawMessage  `json:"publicationYear,omitempty"`
	PublicationMonth json.RawMessage  `json:"publicationMonth,omitempty"`
	Publisher        string           `json:"publisher,omitempty"`
	Language         string           `json:"language,omitempty"`
	Comments         string           `json:"comments,omitempty"`
	Credits          []bookInfoCredit `json:"credits,omitempty"`
}

// ParseBookInfo overlays metadata from a ComicBookInfo/1.0 zip comment onto
// md. It reports false when comment is not a ComicBookInfo document, in which
// case md is unchanged.
func ParseBookInfo(comment string, md *Metadata) bool {
	if strings.TrimSpace(comment) == "" {
		return false
	}

	var container map[string]json.RawMessage
	if err := json.Unmarshal([]byte(comment), &container); err != nil {
		return false
	}
	raw, ok := container[BookInfoKey]
	if !ok {
		return false
	}
	var info bookInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return false
	}

	overlay := func(f Field, v string) {
		if v != "" {
			md.Set(f, v)
		}
	}
	overlay(FieldTitle, info.Title)
	overlay(FieldSeries, info.Series)
	overlay(FieldVolume, rawScalar(info.Volume))
	overlay(FieldYear, rawScalar(info.PublicationYear))
	overlay(FieldMonth, rawScalar(info.PublicationMonth))
	overlay(FieldPublisher, info.Publisher)
	overlay(FieldLanguage, info.Language)
	overlay(FieldSummary, info.Comments)

	var writers []string
	for _, c := range info.Credits {
		if isWriterRole(c.Role) && c.Person != "" {
			writers = append(writers, c.Person)
		}
	}
	overlay(FieldWriter, strings.Join(writers, ", "))

	return true
}

// MarshalBookInfo renders md as a ComicBookInfo/1.0 zip comment.
func MarshalBookInfo(md Metadata, appID string, now time.Time) (string, error) {
	info := bookInfo{
		Title:            md.Title,
		Series:           md.Series,
		Volume:           scalar(md.Volume),
		PublicationYear:  scalar(md.Year),
		PublicationMonth: scalar(md.Month),
		Publisher:        md.Publisher,
		Language:         md.Language,
		Comments:         md.Summary,
	}
	if md.Writer != "" {
		info.Credits = []bookInfoCredit{{Person: md.Writer, Role: "Writer", Primary: true}}
	}

	container := struct {
		AppID        string   `json:"appID"`
		LastModified string   `json:"lastModified"`
		Info         bookInfo `json:"ComicBookInfo/1.0"`
	}{
		AppID:        appID,
		LastModified: now.UTC().Format("2006-01-02 15:04:05.000000"),
		Info:         info,
	}

	data, err := json.Marshal(container)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// rawScalar renders a JSON number or string as plain text.
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// scalar encodes canonical integers as JSON numbers and anything else as a
// JSON string. Empty values are omitted.
func scalar(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil && strconv.Itoa(n) == s {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}

func isWriterRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range writerRoles {
		if role == r {
			return true
		}
	}
	return false
}
