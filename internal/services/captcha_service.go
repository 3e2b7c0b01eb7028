package services

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CaptchaService produces the arithmetic question shown on the sign-up form.
type CaptchaService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptchaService() *CaptchaService {
	return &CaptchaService{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateMathProblem returns a question like "3 + 5" and its answer.
// The answer goes into the session, the question onto the page.
func (s *CaptchaService) GenerateMathProblem() (string, int) {
	s.mu.Lock()
	a, b, op := s.rnd.Intn(10), s.rnd.Intn(10), s.rnd.Intn(2)
	s.mu.Unlock()

	if op == 0 {
		return fmt.Sprintf("%d + %d", a, b), a + b
	}
	// keep the result non-negative
	if a < b {
		a, b = b, a
	}
	return fmt.Sprintf("%d - %d", a, b), a - b
}

// CheckAnswer compares the user's input with the stored answer.
func CheckAnswer(input string, expected any) bool {
	want, ok := expected.(int)
	if !ok {
		return false
	}
	got, err := strconv.Atoi(strings.TrimSpace(input))
	return err == nil && got == want
}
