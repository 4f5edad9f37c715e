package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"

	"github.com/nanoncore/nano-virtualwire/internal/logger"
	"github.com/nanoncore/nano-virtualwire/types"
)

// HandlerConfig configures a Handler
type HandlerConfig struct {
	Graph *ModeGraph
	// DefaultMode is the mode used by DefaultMode
	DefaultMode string
	// Credentials are updated by DefineSessionAttributes
	Credentials *Credentials
	Dialer      Dialer
	// SessionTypes are tried in order when a new session is needed
	SessionTypes   []string
	Ports          map[string]int
	Timeout        time.Duration
	ConnectTimeout time.Duration
	// PoolSize defaults to one session
	PoolSize int
	Logger   *logrus.Entry
}

// Handler owns the session pool and moves sessions between modes
type Handler struct {
	cfg  HandlerConfig
	pool *Pool
	log  *logrus.Entry

	mu   sync.RWMutex
	host string
}

// NewHandler validates cfg and creates a Handler
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Graph == nil {
		return nil, fmt.Errorf("mode graph is required")
	}
	if _, ok := cfg.Graph.Mode(cfg.DefaultMode); !ok {
		return nil, fmt.Errorf("default mode %q is not defined", cfg.DefaultMode)
	}
	if cfg.Dialer == nil {
		return nil, fmt.Errorf("dialer is required")
	}
	if cfg.Credentials == nil {
		cfg.Credentials = &Credentials{}
	}
	if len(cfg.SessionTypes) == 0 {
		cfg.SessionTypes = []string{types.SessionTypeSSH}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = cfg.Timeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.WithField("component", "cli")
	}

	return &Handler{
		cfg:  cfg,
		pool: NewPool(cfg.PoolSize),
		log:  cfg.Logger,
	}, nil
}

// DefineSessionAttributes stores host and credentials for new sessions
func (h *Handler) DefineSessionAttributes(address, username, password string) error {
	if strings.Contains(address, ":") {
		return types.NewValidationError("Incorrect resource address")
	}
	h.mu.Lock()
	h.host = address
	h.mu.Unlock()
	h.cfg.Credentials.Set(username, password)
	return nil
}

// DefaultMode runs fn with a session in the default mode
func (h *Handler) DefaultMode(ctx context.Context, fn func(ctx context.Context, s CommandSender) error) error {
	return h.Run(ctx, h.cfg.DefaultMode, fn)
}

// Run checks out a session, moves it to modeName and runs fn. The session
// goes back to the pool on every exit path; session faults and failed
// transitions close it instead.
func (h *Handler) Run(ctx context.Context, modeName string, fn func(ctx context.Context, s CommandSender) error) error {
	h.mu.RLock()
	host := h.host
	h.mu.RUnlock()
	username, password := h.cfg.Credentials.Username(), h.cfg.Credentials.Password()

	if host == "" || username == "" || password == "" {
		return types.NewPreconditionError("Cli Attributes is not defined, call Login command first")
	}
	for _, t := range h.cfg.SessionTypes {
		if !IsKnownSessionType(t) {
			return types.NewValidationError("Session type %s is not defined", t)
		}
	}
	target, ok := h.cfg.Graph.Mode(modeName)
	if !ok {
		return fmt.Errorf("%w: unknown mode %q", ErrNoModePath, modeName)
	}

	key := fmt.Sprintf("%s@%s/%s", username, host, strings.Join(h.cfg.SessionTypes, ","))
	lease, err := h.pool.Acquire(ctx, key, func(ctx context.Context) (*Lease, error) {
		return h.connect(ctx, host, username, password)
	})
	if err != nil {
		return err
	}

	discard := true
	defer func() {
		if discard {
			h.log.Debugf("discarding %s session", lease.Session.SessionType())
			h.pool.Discard(lease)
			return
		}
		h.pool.Release(lease)
	}()

	svc, err := h.moveTo(ctx, lease, target)
	if err != nil {
		return err
	}

	err = fn(ctx, svc)
	discard = types.IsSessionError(err)
	return err
}

// Close closes pooled sessions
func (h *Handler) Close() error {
	return h.pool.Close()
}

func (h *Handler) service(lease *Lease, mode *CommandMode) *Service {
	return &Service{
		session: lease.Session,
		mode:    mode,
		timeout: h.cfg.Timeout,
		log:     h.log,
	}
}

// connect tries each session type in order and stabilises the first
// prompt. Telnet sessions answer login prompts on the way.
func (h *Handler) connect(ctx context.Context, host, username, password string) (*Lease, error) {
	var errs []error
	for _, sessionType := range h.cfg.SessionTypes {
		sessionType = strings.ToUpper(sessionType)
		port := h.cfg.Ports[sessionType]
		if port == 0 {
			port = DefaultPorts[sessionType]
		}

		log := h.log.WithFields(logrus.Fields{"host": host, "port": port, "type": sessionType})
		log.Debug("opening session")

		sess, err := h.cfg.Dialer.Dial(ctx, DialOptions{
			SessionType: sessionType,
			Host:        host,
			Port:        port,
			Username:    username,
			Password:    password,
			Timeout:     h.cfg.ConnectTimeout,
		})
		if err != nil {
			log.Debugf("dial failed: %v", err)
			errs = append(errs, fmt.Errorf("%s: %w", sessionType, err))
			continue
		}

		lease, err := h.stabilize(ctx, sess)
		if err != nil {
			_ = sess.Close()
			log.Debugf("connect actions failed: %v", err)
			errs = append(errs, fmt.Errorf("%s: %w", sessionType, err))
			continue
		}
		return lease, nil
	}

	return nil, &types.SessionError{
		Code: codes.Unavailable,
		Op:   fmt.Sprintf("failed to open session to %s", host),
		Err:  errors.Join(errs...),
	}
}

// stabilize drains the banner until a known prompt shows up, then runs the
// enter actions of the mode the session landed in.
func (h *Handler) stabilize(ctx context.Context, sess Session) (*Lease, error) {
	var actions ActionMap
	if sess.SessionType() == types.SessionTypeTelnet {
		actions = h.loginActions()
	}

	output, idx, err := runExpect(ctx, sess, actions, nil, h.cfg.ConnectTimeout, h.cfg.Graph.Prompts()...)
	if err != nil {
		return nil, err
	}

	mode, ok := h.cfg.Graph.Detect(output)
	if !ok {
		mode = h.cfg.Graph.Modes()[idx]
	}
	h.log.Debugf("session landed in %s mode", mode.Name)

	lease := &Lease{Session: sess, Mode: mode.Name}
	if mode.EnterActions != nil {
		if err := mode.EnterActions(ctx, h.service(lease, mode)); err != nil {
			return nil, transitionError("enter actions of "+mode.Name, err)
		}
	}
	return lease, nil
}

func (h *Handler) loginActions() ActionMap {
	return ActionMap{
		{Pattern: loginPromptRE, Handle: SendLine(h.cfg.Credentials.Username)},
		{Pattern: passwordPromptRE, Handle: SendLine(h.cfg.Credentials.Password)},
	}
}

// moveTo walks the mode graph from the lease's mode to target
func (h *Handler) moveTo(ctx context.Context, lease *Lease, target *CommandMode) (*Service, error) {
	path, err := h.cfg.Graph.Path(lease.Mode, target.Name)
	if err != nil {
		return nil, transitionError("mode transition", err)
	}

	for _, step := range path {
		h.log.Debug(step.String())
		if step.Enter {
			err = h.enter(ctx, lease, step.Mode)
		} else {
			err = h.exit(ctx, lease, step.Mode)
		}
		if err != nil {
			return nil, err
		}
	}
	return h.service(lease, target), nil
}

func (h *Handler) enter(ctx context.Context, lease *Lease, mode *CommandMode) error {
	if err := lease.Session.Send(mode.EnterCommand); err != nil {
		return &types.SessionError{Code: codes.Unavailable, Op: "enter " + mode.Name, Err: err}
	}
	output, _, err := runExpect(ctx, lease.Session, mode.EnterActionMap, mode.EnterErrorMap, h.cfg.Timeout, mode.Prompt)
	if err != nil {
		return transitionError("enter "+mode.Name, err)
	}
	if err := checkOutput(mode.EnterCommand, cleanOutput(output, mode.EnterCommand, mode.Prompt), mode.EnterErrorMap); err != nil {
		return transitionError("enter "+mode.Name, err)
	}
	lease.Mode = mode.Name

	if mode.EnterActions != nil {
		if err := mode.EnterActions(ctx, h.service(lease, mode)); err != nil {
			return transitionError("enter actions of "+mode.Name, err)
		}
	}
	return nil
}

func (h *Handler) exit(ctx context.Context, lease *Lease, mode *CommandMode) error {
	parent := h.cfg.Graph.Parent(mode.Name)
	if parent == nil {
		return transitionError("exit "+mode.Name, fmt.Errorf("%w: %s is a root mode", ErrNoModePath, mode.Name))
	}
	if err := lease.Session.Send(mode.ExitCommand); err != nil {
		return &types.SessionError{Code: codes.Unavailable, Op: "exit " + mode.Name, Err: err}
	}
	if _, _, err := runExpect(ctx, lease.Session, mode.ExitActionMap, mode.ExitErrorMap, h.cfg.Timeout, parent.Prompt); err != nil {
		return transitionError("exit "+mode.Name, err)
	}
	lease.Mode = parent.Name
	return nil
}

// transitionError wraps err as a session fault unless it already is one
func transitionError(op string, err error) error {
	if types.IsSessionError(err) {
		return err
	}
	return &types.SessionError{Code: codes.FailedPrecondition, Op: op, Err: err}
}
