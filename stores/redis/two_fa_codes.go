package redis

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/stores"
	"github.com/MrEthical07/authservice/twofa"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultTwoFAPrefix    = "two_fa_code"
	challengeRecordV1     = 1
	maxChallengeFieldSize = 255
)

var errChallengeRecord = errors.New("malformed challenge record")

// TwoFACodeStore keeps one challenge per email under a TTL'd key.
type TwoFACodeStore struct {
	redis  goredis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewTwoFACodeStore builds a store; an empty prefix selects "two_fa_code"
// and ttl <= 0 selects twofa.DefaultTTL.
func NewTwoFACodeStore(client goredis.UniversalClient, prefix string, ttl time.Duration) *TwoFACodeStore {
	if prefix == "" {
		prefix = defaultTwoFAPrefix
	}
	if ttl <= 0 {
		ttl = twofa.DefaultTTL
	}
	return &TwoFACodeStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *TwoFACodeStore) key(email account.Email) string {
	return s.prefix + ":" + email.String()
}

// AddCode overwrites any previous challenge for email in one SET.
func (s *TwoFACodeStore) AddCode(ctx context.Context, email account.Email, id twofa.LoginAttemptID, code twofa.Code) error {
	encoded, err := encodeChallenge(twofa.Challenge{
		AttemptID: id,
		Code:      code,
		CreatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}
	if err := s.redis.Set(ctx, s.key(email), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}
	return nil
}

func (s *TwoFACodeStore) GetCode(ctx context.Context, email account.Email) (twofa.LoginAttemptID, twofa.Code, error) {
	data, err := s.redis.Get(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return twofa.LoginAttemptID{}, twofa.Code{}, stores.ErrLoginAttemptIDNotFound
		}
		return twofa.LoginAttemptID{}, twofa.Code{}, fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}

	c, err := decodeChallenge(data)
	if err != nil {
		return twofa.LoginAttemptID{}, twofa.Code{}, fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}
	return c.AttemptID, c.Code, nil
}

// TakeCode reads and deletes the challenge with a single GETDEL.
func (s *TwoFACodeStore) TakeCode(ctx context.Context, email account.Email) (twofa.LoginAttemptID, twofa.Code, error) {
	data, err := s.redis.GetDel(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return twofa.LoginAttemptID{}, twofa.Code{}, stores.ErrLoginAttemptIDNotFound
		}
		return twofa.LoginAttemptID{}, twofa.Code{}, fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}

	c, err := decodeChallenge(data)
	if err != nil {
		return twofa.LoginAttemptID{}, twofa.Code{}, fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}
	return c.AttemptID, c.Code, nil
}

func (s *TwoFACodeStore) RemoveCode(ctx context.Context, email account.Email) error {
	if err := s.redis.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}
	return nil
}

// Record layout (big endian):
//
//	version u8 | created_at i64 unix seconds | len u8 | attempt id | len u8 | code
func encodeChallenge(c twofa.Challenge) ([]byte, error) {
	id, code := c.AttemptID.String(), c.Code.String()
	if len(id) > maxChallengeFieldSize || len(code) > maxChallengeFieldSize {
		return nil, errors.New("challenge field too long")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 8 + 2 + len(id) + len(code))
	buf.WriteByte(challengeRecordV1)
	_ = binary.Write(&buf, binary.BigEndian, c.CreatedAt.Unix())
	buf.WriteByte(byte(len(id)))
	buf.WriteString(id)
	buf.WriteByte(byte(len(code)))
	buf.WriteString(code)
	return buf.Bytes(), nil
}

func decodeChallenge(data []byte) (twofa.Challenge, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil || version != challengeRecordV1 {
		return twofa.Challenge{}, errChallengeRecord
	}
	var created int64
	if err := binary.Read(r, binary.BigEndian, &created); err != nil {
		return twofa.Challenge{}, errChallengeRecord
	}
	rawID, err := readField(r)
	if err != nil {
		return twofa.Challenge{}, err
	}
	rawCode, err := readField(r)
	if err != nil {
		return twofa.Challenge{}, err
	}
	if r.Len() != 0 {
		return twofa.Challenge{}, errChallengeRecord
	}

	id, err := twofa.ParseLoginAttemptID(rawID)
	if err != nil {
		return twofa.Challenge{}, fmt.Errorf("%w: %v", errChallengeRecord, err)
	}
	code, err := twofa.ParseCode(rawCode)
	if err != nil {
		return twofa.Challenge{}, fmt.Errorf("%w: %v", errChallengeRecord, err)
	}
	return twofa.Challenge{AttemptID: id, Code: code, CreatedAt: time.Unix(created, 0)}, nil
}

func readField(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", errChallengeRecord
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", errChallengeRecord
	}
	return string(b), nil
}
