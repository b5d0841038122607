package relaylib

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

const (
	DefaultWorkerPoolSize = 1024

	// ResponsePreviewLength is a number of characters of the reply kept
	// in UsageRecord.
	ResponsePreviewLength = 200

	EndpointChat     = "chat"
	EndpointGenerate = "generate"

	workerPoolExpireTime = time.Minute
)

type geoRequest struct {
	ctx           context.Context
	ip            string
	resultChannel chan<- GeoInfo
}

// RelayOpts is a set of collaborators and settings of Relay. Resolver,
// Client and Logger are mandatory.
type RelayOpts struct {
	Resolver         *GeoResolver
	Client           LLMClient
	Logger           Logger
	Clock            Clock
	UsageLogCapacity int
	WorkerPoolSize   int
}

// Relay forwards prompts upstream and remembers completed calls. It
// is an explicit owner of all shared state: usage log, request
// counters and geolocation cache.
type Relay struct {
	resolver   *GeoResolver
	client     LLMClient
	logger     Logger
	clock      Clock
	usageLog   *UsageLog
	counter    *RequestCounter
	llmStats   *UsageStats
	workerPool *ants.PoolWithFunc
	inFlight   sync.WaitGroup
	rwmutex    sync.RWMutex
	closeOnce  sync.Once
	closed     bool
}

// Chat sends a plain prompt upstream on behalf of the client with a
// given IP.
func (r *Relay) Chat(ctx context.Context, ip, prompt string) (ChatResult, error) {
	if prompt == "" {
		return ChatResult{}, ErrEmptyPrompt
	}

	return r.relay(ctx, ip, EndpointChat, prompt, NewPromptRequest(prompt))
}

// Generate sends a parameter object upstream. rawParams has to be a
// JSON document which passes ParseCompletionRequest validation, it is
// never interpreted in any other way.
func (r *Relay) Generate(ctx context.Context, ip string, rawParams []byte) (ChatResult, error) {
	req, err := ParseCompletionRequest(ctx, rawParams)
	if err != nil {
		return ChatResult{}, err
	}

	prompt, err := json.Marshal(req)
	if err != nil {
		return ChatResult{}, fmt.Errorf("cannot serialize parameters: %w", err)
	}

	return r.relay(ctx, ip, EndpointGenerate, string(prompt), req)
}

func (r *Relay) relay(ctx context.Context,
	ip, endpoint, prompt string,
	req CompletionRequest) (ChatResult, error) {
	requestCount, err := r.accept(ip)
	if err != nil {
		return ChatResult{}, err
	}

	defer r.inFlight.Done()

	geoChannel := r.resolveAsync(ctx, ip)
	req.RequestID = uuid.New().String()

	startTime := time.Now()
	completion, err := r.client.Complete(ctx, req)
	duration := time.Since(startTime)

	if err == nil && !completion.Valid() {
		err = ErrInvalidCompletion
	}

	r.llmStats.Used(err)

	if err != nil {
		r.logger.CompletionError(ip, err)

		return ChatResult{}, fmt.Errorf("cannot get completion: %w", err)
	}

	record := UsageRecord{
		GeoInfo:           <-geoChannel,
		ID:                req.RequestID,
		Endpoint:          endpoint,
		Timestamp:         r.clock.String(),
		ClientIP:          ip,
		RequestCount:      requestCount,
		Prompt:            prompt,
		PromptLengthChars: utf8.RuneCountInString(prompt),
		PromptLengthWords: len(strings.Fields(prompt)),
		TokenUsage:        completion.Usage.Total,
		PromptTokens:      completion.Usage.Prompt,
		CompletionTokens:  completion.Usage.Completion,
		ResponseTimeMS:    duration.Round(time.Millisecond).Milliseconds(),
		Model:             completion.Model,
		ResponsePreview:   responsePreview(completion.Reply),
	}

	r.usageLog.Append(record)
	r.logger.CompletionRecorded(record)

	return ChatResult{
		Reply:  completion.Reply,
		Record: record,
	}, nil
}

// accept registers a new in-flight call. The lock is never held
// across an upstream call.
func (r *Relay) accept(ip string) (uint64, error) {
	r.rwmutex.RLock()
	defer r.rwmutex.RUnlock()

	if r.closed {
		return 0, ErrRelayShutdown
	}

	r.inFlight.Add(1)

	return r.counter.Increment(ip), nil
}

// resolveAsync runs geolocation in a worker pool so it overlaps with
// upstream call. If pool cannot take a task, lookup is done in place.
func (r *Relay) resolveAsync(ctx context.Context, ip string) <-chan GeoInfo {
	resultChannel := make(chan GeoInfo, 1)
	req := &geoRequest{
		ctx:           ctx,
		ip:            ip,
		resultChannel: resultChannel,
	}

	if err := r.workerPool.Invoke(req); err != nil {
		r.resolveGeo(req)
	}

	return resultChannel
}

func (r *Relay) resolveGeo(args interface{}) {
	params := args.(*geoRequest)

	params.resultChannel <- r.resolver.Resolve(params.ctx, params.ip)
}

// DebugDump returns all logged records, the most recent first.
func (r *Relay) DebugDump() ([]UsageRecord, error) {
	return SortForDebug(r.usageLog.Snapshot())
}

// Summary computes aggregates over a snapshot of the log.
func (r *Relay) Summary() (Summary, error) {
	return ComputeSummary(r.usageLog.Snapshot(), r.clock.String())
}

// Stats returns usage statistics of upstream and all geolocation
// providers.
func (r *Relay) Stats() []*UsageStats {
	return append([]*UsageStats{r.llmStats}, r.resolver.ProviderStats()...)
}

// RequestCount returns how many requests were accepted from the IP.
func (r *Relay) RequestCount(ip string) uint64 {
	return r.counter.Get(ip)
}

// Reset drops the whole state: log, counters, geolocation cache and
// statistics.
func (r *Relay) Reset() {
	r.rwmutex.Lock()
	defer r.rwmutex.Unlock()

	r.usageLog.Reset()
	r.counter.Reset()
	r.resolver.Reset()
	r.llmStats.Reset()
}

// Shutdown rejects new calls and waits until in-flight ones are
// finished.
func (r *Relay) Shutdown() {
	r.rwmutex.Lock()
	r.closed = true
	r.rwmutex.Unlock()

	r.inFlight.Wait()

	r.closeOnce.Do(func() {
		r.workerPool.Release()
	})
}

func responsePreview(reply string) string {
	if utf8.RuneCountInString(reply) <= ResponsePreviewLength {
		return reply
	}

	return string([]rune(reply)[:ResponsePreviewLength])
}

func NewRelay(opts RelayOpts) (*Relay, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("geo resolver is required")
	}

	if opts.Client == nil {
		return nil, fmt.Errorf("llm client is required")
	}

	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if opts.Clock.location == nil {
		clock, err := NewClock(DefaultTimezone, nil)
		if err != nil {
			return nil, fmt.Errorf("cannot create a clock: %w", err)
		}

		opts.Clock = clock
	}

	rv := &Relay{
		resolver: opts.Resolver,
		client:   opts.Client,
		logger:   opts.Logger,
		clock:    opts.Clock,
		usageLog: NewUsageLog(opts.UsageLogCapacity),
		counter:  NewRequestCounter(),
		llmStats: &UsageStats{
			Name: opts.Client.Name(),
			Kind: UsageKindLLM,
		},
	}

	poolSize := opts.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = DefaultWorkerPoolSize
	}

	pool, err := ants.NewPoolWithFunc(poolSize, rv.resolveGeo,
		ants.WithExpiryDuration(workerPoolExpireTime))
	if err != nil {
		return nil, fmt.Errorf("cannot create a worker pool: %w", err)
	}

	rv.workerPool = pool

	return rv, nil
}
