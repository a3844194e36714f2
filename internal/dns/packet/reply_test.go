package packet

import (
	"errors"
	"testing"
)

type wireRecord struct {
	rtype QueryType
	ttl   uint32
	data  []byte
}

// buildReply lays out a reply the way a compressing server does: the
// question echoed verbatim and each answer owner name as a pointer to it.
func buildReply(t *testing.T, id uint16, flags uint16, name string, answers ...wireRecord) []byte {
	t.Helper()
	buf := NewBytePacketBuffer()
	h := DNSHeader{ID: id, Questions: 1, Answers: uint16(len(answers))}
	h.SetFlags(flags)
	if err := h.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := NewDNSQuestion(name, A).Write(buf); err != nil {
		t.Fatal(err)
	}
	for _, a := range answers {
		_ = buf.Writeu16(0xC00C)
		_ = buf.Writeu16(uint16(a.rtype))
		_ = buf.Writeu16(ClassIN)
		_ = buf.Writeu32(a.ttl)
		_ = buf.Writeu16(uint16(len(a.data)))
		_ = buf.WriteRange(a.data)
	}
	return buf.Bytes()
}

func encodedLen(t *testing.T, name string) int {
	t.Helper()
	enc, err := EncodeName(name)
	if err != nil {
		t.Fatal(err)
	}
	return len(enc)
}

func TestParseReplySingleA(t *testing.T) {
	data := buildReply(t, 7, 0x8180, "example.com",
		wireRecord{rtype: A, ttl: 300, data: []byte{93, 184, 216, 34}})

	reply, err := ParseReply(data, encodedLen(t, "example.com"))
	if err != nil {
		t.Fatalf("ParseReply failed: %v", err)
	}
	if reply.Header.ID != 7 || reply.Empty() {
		t.Fatalf("unexpected header %+v", reply.Header)
	}
	if reply.Question.Name != "example.com" || reply.Question.QType != A {
		t.Errorf("echoed question not decoded: %+v", reply.Question)
	}

	records, err := reply.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Type != A || rec.Class != ClassIN || rec.TTL != 300 {
		t.Errorf("unexpected record %+v", rec)
	}
	if string(rec.Data) != string([]byte{93, 184, 216, 34}) {
		t.Errorf("unexpected rdata %v", rec.Data)
	}
	if rec.Consumed != 12+4 {
		t.Errorf("expected 16 consumed bytes, got %d", rec.Consumed)
	}
}

func TestParseReplyTwoRecords(t *testing.T) {
	cname, _ := EncodeName("edge.example.net")
	data := buildReply(t, 1, 0x8180, "www.example.com",
		wireRecord{rtype: A, ttl: 60, data: []byte{10, 0, 0, 1}},
		wireRecord{rtype: CNAME, ttl: 120, data: cname})

	nameLen := encodedLen(t, "www.example.com")
	reply, err := ParseReply(data, nameLen)
	if err != nil {
		t.Fatalf("ParseReply failed: %v", err)
	}

	first, err := reply.ReadRecord(HeaderSize + nameLen + QuestionSize)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	// The first record's consumed length must land exactly on the second.
	second, err := reply.ReadRecord(HeaderSize + nameLen + QuestionSize + first.Consumed)
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if second.Type != CNAME || second.TTL != 120 {
		t.Fatalf("second record misplaced: %+v", second)
	}
	if HeaderSize+nameLen+QuestionSize+first.Consumed+second.Consumed != len(data) {
		t.Errorf("records do not cover the reply exactly")
	}

	var offsets []int
	err = reply.WalkAnswers(func(rec Record) (int, error) {
		offsets = append(offsets, rec.Consumed)
		return rec.Consumed, nil
	})
	if err != nil || len(offsets) != 2 {
		t.Fatalf("WalkAnswers: %v, %v", offsets, err)
	}
}

func TestParseReplyEmpty(t *testing.T) {
	data := buildReply(t, 1, 0x8180, "example.com")
	reply, err := ParseReply(data, encodedLen(t, "example.com"))
	if err != nil {
		t.Fatalf("ParseReply failed: %v", err)
	}
	if !reply.Empty() {
		t.Errorf("expected empty reply")
	}
	records, err := reply.Records()
	if err != nil || len(records) != 0 {
		t.Errorf("expected no records, got %v, %v", records, err)
	}
}

func TestParseReplyRcodes(t *testing.T) {
	tests := []struct {
		rcode    uint8
		status   int
		notFound bool
	}{
		{RcodeFormatError, 1, false},
		{RcodeServerFailure, 2, false},
		{RcodeNameError, 3, true},
		{RcodeNotImplemented, 4, false},
		{RcodeRefused, 5, false},
		{6, 6, false},
		{15, 6, false},
	}
	for _, tt := range tests {
		// answer count is set to show that the rcode wins
		data := buildReply(t, 1, 0x8180|uint16(tt.rcode), "example.com",
			wireRecord{rtype: A, ttl: 1, data: []byte{1, 2, 3, 4}})

		reply, err := ParseReply(data, encodedLen(t, "example.com"))
		re, ok := IsResponseError(err)
		if !ok {
			t.Fatalf("rcode %d: expected ResponseError, got %v", tt.rcode, err)
		}
		if reply == nil || reply.Header.ResCode != tt.rcode {
			t.Errorf("rcode %d: header not returned with error", tt.rcode)
		}
		if re.ExitStatus() != tt.status || re.NotFound() != tt.notFound {
			t.Errorf("rcode %d: status %d notFound %v", tt.rcode, re.ExitStatus(), re.NotFound())
		}
		if re.Error() == "" {
			t.Errorf("rcode %d: empty message", tt.rcode)
		}
	}
}

func TestParseReplyTruncated(t *testing.T) {
	data := buildReply(t, 1, 0x8180, "example.com",
		wireRecord{rtype: A, ttl: 300, data: []byte{1, 2, 3, 4}})
	nameLen := encodedLen(t, "example.com")

	if _, err := ParseReply(data[:10], nameLen); !errors.Is(err, ErrEndOfBuffer) {
		t.Errorf("short header: expected ErrEndOfBuffer, got %v", err)
	}

	for _, cut := range []int{2, 5, 9} {
		reply, err := ParseReply(data[:len(data)-cut], nameLen)
		if err != nil {
			t.Fatalf("header should still parse: %v", err)
		}
		if _, err := reply.Records(); !errors.Is(err, ErrEndOfBuffer) {
			t.Errorf("cut %d: expected ErrEndOfBuffer, got %v", cut, err)
		}
	}
}

func TestWalkAnswersVisitorError(t *testing.T) {
	data := buildReply(t, 1, 0x8180, "example.com",
		wireRecord{rtype: A, ttl: 300, data: []byte{1, 2, 3, 4}},
		wireRecord{rtype: A, ttl: 300, data: []byte{5, 6, 7, 8}})
	reply, err := ParseReply(data, encodedLen(t, "example.com"))
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	calls := 0
	err = reply.WalkAnswers(func(Record) (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Errorf("expected walk to stop at first error, calls=%d err=%v", calls, err)
	}

	err = reply.WalkAnswers(func(Record) (int, error) { return 0, nil })
	if err == nil {
		t.Errorf("expected error when visitor consumes nothing")
	}
}

func TestParseReplyQuestionMismatch(t *testing.T) {
	data := buildReply(t, 1, 0x8180, "example.com",
		wireRecord{rtype: A, ttl: 300, data: []byte{1, 2, 3, 4}})

	// echoed name shorter than the one we asked for
	if _, err := ParseReply(data, encodedLen(t, "www.example.com")); !errors.Is(err, ErrQuestionMismatch) {
		t.Errorf("expected ErrQuestionMismatch, got %v", err)
	}

	// answers without a question
	noQuestion := append([]byte(nil), data...)
	noQuestion[4], noQuestion[5] = 0, 0
	if _, err := ParseReply(noQuestion, encodedLen(t, "example.com")); !errors.Is(err, ErrQuestionMismatch) {
		t.Errorf("expected ErrQuestionMismatch for QDCOUNT 0, got %v", err)
	}

	// compressed echoed question
	compressed := append([]byte(nil), data[:HeaderSize]...)
	compressed = append(compressed, 0xC0, 0x0C, 0, 1, 0, 1)
	if _, err := ParseReply(compressed, encodedLen(t, "example.com")); !errors.Is(err, ErrCompressedName) {
		t.Errorf("expected ErrCompressedName, got %v", err)
	}

	// empty replies are not checked
	empty := buildReply(t, 1, 0x8180, "example.com")
	if _, err := ParseReply(empty, encodedLen(t, "www.example.com")); err != nil {
		t.Errorf("empty reply should parse: %v", err)
	}
}
