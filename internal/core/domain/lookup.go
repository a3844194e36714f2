// Package domain contains the plain result types produced by a lookup.
package domain

import (
	"time"
)

// RecordType represents the type of a rendered answer.
type RecordType string

const (
	// TypeA represents an IPv4 address record.
	TypeA RecordType = "A"
	// TypeCNAME represents a canonical name record.
	TypeCNAME RecordType = "CNAME"
)

// Answer is one rendered resource record.
type Answer struct {
	Type          RecordType `json:"type"`
	Value         string     `json:"value"` // dotted quad or canonical name
	TTL           uint32     `json:"ttl"`
	Authoritative bool       `json:"authoritative"`
}

// LookupResult describes a completed exchange with a server.
type LookupResult struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Server    string        `json:"server"`
	Rcode     uint8         `json:"rcode"`
	Answers   []Answer      `json:"answers"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Empty reports a successful lookup that returned no answers.
func (r *LookupResult) Empty() bool {
	return r.Rcode == 0 && len(r.Answers) == 0
}
