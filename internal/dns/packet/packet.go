package packet

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
)

type QueryType uint16

const (
	UNKNOWN QueryType = 0
	A       QueryType = 1
	CNAME   QueryType = 5
)

// ClassIN is the only class this client asks for.
const ClassIN uint16 = 1

const (
	// HeaderSize is the fixed length of a DNS header on the wire.
	HeaderSize = 12
	// QuestionSize is the qtype+qclass trailer that follows the question name.
	QuestionSize = 4
)

func (t QueryType) String() string {
	switch t {
	case A:
		return "A"
	case CNAME:
		return "CNAME"
	default:
		return fmt.Sprintf("TYPE%d", uint16(t))
	}
}

// ParseQueryType maps a mnemonic such as "a" or "CNAME" to its type.
func ParseQueryType(s string) (QueryType, error) {
	switch strings.ToUpper(s) {
	case "A":
		return A, nil
	case "CNAME":
		return CNAME, nil
	default:
		return UNKNOWN, fmt.Errorf("unsupported query type %q", s)
	}
}

type DNSHeader struct {
	ID                  uint16
	Response            bool
	Opcode              uint8
	AuthoritativeAnswer bool
	TruncatedMessage    bool
	RecursionDesired    bool
	RecursionAvailable  bool
	Z                   uint8 // 3 reserved bits
	ResCode             uint8 // RCODE

	Questions            uint16
	Answers              uint16
	AuthoritativeEntries uint16
	ResourceEntries      uint16
}

// Flags packs the bitfield in wire order: QR, OPCODE(4), AA, TC, RD, RA, Z(3), RCODE(4).
func (h *DNSHeader) Flags() uint16 {
	var flags uint16
	if h.Response {
		flags |= 1 << 15
	}
	flags |= uint16(h.Opcode&0x0F) << 11
	if h.AuthoritativeAnswer {
		flags |= 1 << 10
	}
	if h.TruncatedMessage {
		flags |= 1 << 9
	}
	if h.RecursionDesired {
		flags |= 1 << 8
	}
	if h.RecursionAvailable {
		flags |= 1 << 7
	}
	flags |= uint16(h.Z&0x07) << 4
	flags |= uint16(h.ResCode & 0x0F)
	return flags
}

// SetFlags is the inverse of Flags.
func (h *DNSHeader) SetFlags(flags uint16) {
	h.Response = flags&(1<<15) != 0
	h.Opcode = uint8(flags>>11) & 0x0F
	h.AuthoritativeAnswer = flags&(1<<10) != 0
	h.TruncatedMessage = flags&(1<<9) != 0
	h.RecursionDesired = flags&(1<<8) != 0
	h.RecursionAvailable = flags&(1<<7) != 0
	h.Z = uint8(flags>>4) & 0x07
	h.ResCode = uint8(flags) & 0x0F
}

func (h *DNSHeader) Read(buffer *BytePacketBuffer) error {
	var err error
	if h.ID, err = buffer.Readu16(); err != nil {
		return fmt.Errorf("read header id: %w", err)
	}
	flags, err := buffer.Readu16()
	if err != nil {
		return fmt.Errorf("read header flags: %w", err)
	}
	h.SetFlags(flags)

	counts := []*uint16{&h.Questions, &h.Answers, &h.AuthoritativeEntries, &h.ResourceEntries}
	for _, c := range counts {
		if *c, err = buffer.Readu16(); err != nil {
			return fmt.Errorf("read header counts: %w", err)
		}
	}
	return nil
}

func (h *DNSHeader) Write(buffer *BytePacketBuffer) error {
	for _, v := range []uint16{
		h.ID,
		h.Flags(),
		h.Questions,
		h.Answers,
		h.AuthoritativeEntries,
		h.ResourceEntries,
	} {
		if err := buffer.Writeu16(v); err != nil {
			return err
		}
	}
	return nil
}

type DNSQuestion struct {
	Name  string
	QType QueryType
}

func NewDNSQuestion(name string, qtype QueryType) *DNSQuestion {
	return &DNSQuestion{
		Name:  name,
		QType: qtype,
	}
}

func (q *DNSQuestion) Write(buffer *BytePacketBuffer) error {
	if err := buffer.WriteName(q.Name); err != nil {
		return err
	}
	if err := buffer.Writeu16(uint16(q.QType)); err != nil {
		return err
	}
	return buffer.Writeu16(ClassIN)
}

func (q *DNSQuestion) Read(buffer *BytePacketBuffer) error {
	var err error
	if q.Name, err = buffer.ReadName(); err != nil {
		return err
	}
	qtype, err := buffer.Readu16()
	if err != nil {
		return err
	}
	q.QType = QueryType(qtype)
	_, err = buffer.Readu16() // QCLASS
	return err
}

// Query is a single-question, recursion-desired request.
type Query struct {
	Header   DNSHeader
	Question DNSQuestion
}

// NewQuery builds the header and question for one lookup of name.
func NewQuery(id uint16, name string, qtype QueryType) *Query {
	return &Query{
		Header: DNSHeader{
			ID:               id,
			RecursionDesired: true,
			Questions:        1,
		},
		Question: *NewDNSQuestion(name, qtype),
	}
}

// Bytes serializes the query: 12-byte header, encoded name, 4-byte trailer.
func (q *Query) Bytes() ([]byte, error) {
	buffer := NewBytePacketBuffer()
	if err := q.Header.Write(buffer); err != nil {
		return nil, err
	}
	if err := q.Question.Write(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// EncodedNameLen is the wire length of the question name, terminator included.
func (q *Query) EncodedNameLen() (int, error) {
	enc, err := EncodeName(q.Question.Name)
	if err != nil {
		return 0, err
	}
	return len(enc), nil
}

// NewTransactionID returns a random 16-bit message id.
func NewTransactionID() uint16 {
	var id uint16
	_ = binary.Read(rand.Reader, binary.BigEndian, &id)
	return id
}
