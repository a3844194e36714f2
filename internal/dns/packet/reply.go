package packet

import (
	"errors"
	"fmt"
)

// Response codes carried in the low nibble of the header flags.
const (
	RcodeSuccess        uint8 = 0
	RcodeFormatError    uint8 = 1
	RcodeServerFailure  uint8 = 2
	RcodeNameError      uint8 = 3
	RcodeNotImplemented uint8 = 4
	RcodeRefused        uint8 = 5
)

const (
	// recordNameSize is the room assumed for each answer's owner name. Servers
	// that echo the question name compress it to a 2-byte pointer.
	recordNameSize = 2
	// recordFixedSize is type, class, ttl and rdlength.
	recordFixedSize = 10
)

// ResponseError reports a non-zero rcode in a reply.
type ResponseError struct {
	Rcode uint8
}

func (e *ResponseError) Error() string {
	switch e.Rcode {
	case RcodeFormatError:
		return "format error; the server was unable to understand our request"
	case RcodeServerFailure:
		return "server failure; the server was unable to process this request"
	case RcodeNameError:
		return "name does not exist"
	case RcodeNotImplemented:
		return "not implemented; the server does not support this query"
	case RcodeRefused:
		return "refused; the server refused to talk to us"
	default:
		return fmt.Sprintf("unknown response code %d", e.Rcode)
	}
}

// NotFound reports whether the server said the name does not exist.
func (e *ResponseError) NotFound() bool {
	return e.Rcode == RcodeNameError
}

// ExitStatus maps the rcode to the process status: 1..5 for the known codes,
// 6 for anything else.
func (e *ResponseError) ExitStatus() int {
	if e.Rcode >= RcodeFormatError && e.Rcode <= RcodeRefused {
		return int(e.Rcode)
	}
	return 6
}

// ValidateRcode returns a *ResponseError for any rcode other than success.
func ValidateRcode(h *DNSHeader) error {
	if h.ResCode == RcodeSuccess {
		return nil
	}
	return &ResponseError{Rcode: h.ResCode}
}

// Record is one answer as laid out on the wire, owner name skipped.
type Record struct {
	Type  QueryType
	Class uint16
	TTL   uint32
	Data  []byte

	// Consumed is the number of reply bytes the record occupies, owner name
	// included.
	Consumed int
}

// ErrQuestionMismatch reports an echoed question that does not end where
// the answer section is expected to begin.
var ErrQuestionMismatch = errors.New("echoed question does not match the query")

// Reply is a decoded and validated response.
type Reply struct {
	Header   DNSHeader
	Question DNSQuestion

	buffer      *BytePacketBuffer
	answerStart int
}

// ParseReply decodes the header of data, validates its rcode and locates
// the answer section. encodedNameLen is the wire length of the question name,
// terminator included. The answer section is assumed to start right after
// the echoed question, and every answer is assumed to open with a 2-byte
// compressed owner name; replies that spell names out will misparse. When
// answers are present the echoed question is decoded and must end exactly at
// that offset.
func ParseReply(data []byte, encodedNameLen int) (*Reply, error) {
	buffer := FromBytes(data)

	r := &Reply{buffer: buffer}
	if err := r.Header.Read(buffer); err != nil {
		return nil, err
	}
	if err := ValidateRcode(&r.Header); err != nil {
		return r, err
	}

	r.answerStart = HeaderSize + encodedNameLen + QuestionSize
	if r.Empty() {
		return r, nil
	}

	if r.Header.Questions == 0 {
		return nil, fmt.Errorf("reply has answers but no question: %w", ErrQuestionMismatch)
	}
	if err := r.Question.Read(buffer); err != nil {
		return nil, fmt.Errorf("read question: %w", err)
	}
	if buffer.Position() != r.answerStart {
		return nil, fmt.Errorf("question ends at %d, expected %d: %w",
			buffer.Position(), r.answerStart, ErrQuestionMismatch)
	}
	return r, nil
}

// Empty reports a successful reply with no answers.
func (r *Reply) Empty() bool {
	return r.Header.Answers == 0
}

// ReadRecord decodes the answer starting at offset.
func (r *Reply) ReadRecord(offset int) (Record, error) {
	var rec Record
	b := r.buffer
	if err := b.Seek(offset); err != nil {
		return rec, err
	}
	if err := b.Step(recordNameSize); err != nil {
		return rec, fmt.Errorf("record at %d: %w", offset, ErrEndOfBuffer)
	}

	typeVal, err := b.Readu16()
	if err != nil {
		return rec, fmt.Errorf("record at %d: type: %w", offset, err)
	}
	rec.Type = QueryType(typeVal)
	if rec.Class, err = b.Readu16(); err != nil {
		return rec, fmt.Errorf("record at %d: class: %w", offset, err)
	}
	if rec.TTL, err = b.Readu32(); err != nil {
		return rec, fmt.Errorf("record at %d: ttl: %w", offset, err)
	}
	dataLen, err := b.Readu16()
	if err != nil {
		return rec, fmt.Errorf("record at %d: rdlength: %w", offset, err)
	}
	if rec.Data, err = b.ReadRange(int(dataLen)); err != nil {
		return rec, fmt.Errorf("record at %d: rdata: %w", offset, err)
	}

	rec.Consumed = recordNameSize + recordFixedSize + int(dataLen)
	return rec, nil
}

// WalkAnswers decodes Header.Answers records in order. The cursor for the
// next record advances by the byte count visit returns.
func (r *Reply) WalkAnswers(visit func(Record) (int, error)) error {
	offset := r.answerStart
	for i := 0; i < int(r.Header.Answers); i++ {
		rec, err := r.ReadRecord(offset)
		if err != nil {
			return fmt.Errorf("answer %d: %w", i, err)
		}
		n, err := visit(rec)
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("answer %d: visitor consumed %d bytes", i, n)
		}
		offset += n
	}
	return nil
}

// Records collects every answer.
func (r *Reply) Records() ([]Record, error) {
	records := make([]Record, 0, r.Header.Answers)
	err := r.WalkAnswers(func(rec Record) (int, error) {
		records = append(records, rec)
		return rec.Consumed, nil
	})
	return records, err
}

// IsResponseError unwraps err into a *ResponseError when it carries one.
func IsResponseError(err error) (*ResponseError, bool) {
	var re *ResponseError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
