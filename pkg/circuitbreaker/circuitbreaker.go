package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State 表示熔断器状态
type State int

const (
	StateClosed   State = iota // 关闭：正常状态，允许请求通过
	StateOpen                  // 打开：熔断状态，直接拒绝请求
	StateHalfOpen              // 半开：尝试恢复，允许少量请求通过
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

var ErrOpen = errors.New("circuit breaker is open")

// Config 熔断器配置
type Config struct {
	// 连续失败多少次后打开
	FailureThreshold int
	// 半开状态下成功多少次后关闭
	SuccessThreshold int
	// 打开状态持续多久后进入半开
	Timeout time.Duration
	// 半开状态下同时放行的最大请求数
	HalfOpenMaxRequests int
	// OnStateChange is called with the lock released.
	OnStateChange func(name string, from, to State)
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 3,
	}
}

type Breaker struct {
	name   string
	config Config
	now    func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	inFlight      int
	stateChangeAt time.Time
}

func New(name string, config Config) *Breaker {
	return &Breaker{
		name:          name,
		config:        config,
		now:           time.Now,
		state:         StateClosed,
		stateChangeAt: time.Now(),
	}
}

func (b *Breaker) Name() string { return b.name }

// Execute runs fn unless the breaker is open. fn's error counts as a failure.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn()
	b.after(err == nil)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	from := b.state
	if b.state == StateOpen && b.now().Sub(b.stateChangeAt) >= b.config.Timeout {
		b.setState(StateHalfOpen)
	}
	to := b.state

	var err error
	switch b.state {
	case StateOpen:
		err = ErrOpen
	case StateHalfOpen:
		if b.inFlight >= b.config.HalfOpenMaxRequests {
			err = ErrOpen
		} else {
			b.inFlight++
		}
	}
	b.mu.Unlock()

	b.notify(from, to)
	return err
}

func (b *Breaker) after(success bool) {
	b.mu.Lock()
	from := b.state

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
		} else {
			b.failures++
			if b.failures >= b.config.FailureThreshold {
				b.setState(StateOpen)
			}
		}
	case StateHalfOpen:
		b.inFlight--
		if !success {
			b.setState(StateOpen)
		} else {
			b.successes++
			if b.successes >= b.config.SuccessThreshold {
				b.setState(StateClosed)
			}
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// setState must be called with mu held.
func (b *Breaker) setState(s State) {
	b.state = s
	b.failures = 0
	b.successes = 0
	b.inFlight = 0
	b.stateChangeAt = b.now()
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.config.OnStateChange != nil {
		b.config.OnStateChange(b.name, from, to)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.setState(StateClosed)
	b.mu.Unlock()
	b.notify(from, StateClosed)
}
