package client

import (
	"fmt"
	"io"
	"net"

	"github.com/poyrazK/dnsq/internal/core/domain"
	"github.com/poyrazK/dnsq/internal/dns/packet"
	"github.com/poyrazK/dnsq/internal/infrastructure/metrics"
)

// UnsupportedTypeError is returned for answers that are neither A nor CNAME.
type UnsupportedTypeError struct {
	Type packet.QueryType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("the returned record type of %d is not supported", uint16(e.Type))
}

// DecodeAnswer turns a wire record into its rendered form.
func DecodeAnswer(rec packet.Record, authoritative bool) (domain.Answer, error) {
	ans := domain.Answer{TTL: rec.TTL, Authoritative: authoritative}

	switch rec.Type {
	case packet.A:
		if len(rec.Data) != net.IPv4len {
			return ans, fmt.Errorf("A record with %d bytes of data", len(rec.Data))
		}
		ans.Type = domain.TypeA
		ans.Value = net.IP(rec.Data).String()
	case packet.CNAME:
		name, _, err := packet.DecodeName(rec.Data)
		if err != nil {
			return ans, fmt.Errorf("CNAME target could not be decoded: %w", err)
		}
		ans.Type = domain.TypeCNAME
		ans.Value = name
	default:
		return ans, &UnsupportedTypeError{Type: rec.Type}
	}
	return ans, nil
}

// FormatAnswer returns the output line for ans, without newline.
func FormatAnswer(ans domain.Answer) string {
	label := "IP"
	if ans.Type == domain.TypeCNAME {
		label = "CNAME"
	}
	auth := "nonauth"
	if ans.Authoritative {
		auth = "auth"
	}
	return fmt.Sprintf("%s\t%s\t%d\t%s", label, ans.Value, ans.TTL, auth)
}

// Renderer writes one line per answer and remembers what it wrote.
type Renderer struct {
	W             io.Writer
	Authoritative bool
	Answers       []domain.Answer
}

// Render writes rec and returns the number of reply bytes it occupies.
// It has the signature packet.Reply.WalkAnswers expects.
func (r *Renderer) Render(rec packet.Record) (int, error) {
	ans, err := DecodeAnswer(rec, r.Authoritative)
	if err != nil {
		return 0, err
	}
	if _, err := fmt.Fprintln(r.W, FormatAnswer(ans)); err != nil {
		return 0, err
	}
	metrics.AnswersRendered.WithLabelValues(string(ans.Type)).Inc()
	r.Answers = append(r.Answers, ans)
	return rec.Consumed, nil
}
