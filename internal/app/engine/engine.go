package engine

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	matchpublisherv1 "github.com/riverstonefx/clob-engine/internal/domain/match-publisher/v1"
	orderreaderv1 "github.com/riverstonefx/clob-engine/internal/domain/order-reader/v1"
	orderbookv1 "github.com/riverstonefx/clob-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/riverstonefx/clob-engine/internal/domain/snapshot/v1"
	"github.com/riverstonefx/clob-engine/internal/usecase/matching"
	"github.com/riverstonefx/clob-engine/pkg/config"
	pkgerrors "github.com/riverstonefx/clob-engine/pkg/errors"
	"github.com/riverstonefx/clob-engine/pkg/logger"
	"github.com/riverstonefx/clob-engine/pkg/util"
	"go.uber.org/zap/zapcore"
)

// Service is the process-level orchestrator: it owns a MatchingEngine, an
// order-event consumer, a fill publisher, and a snapshot store, and runs
// order processing and periodic checkpointing as two coordinated goroutines.
type Service struct {
	matchingEngine *matching.Engine
	orderReader    orderreaderv1.OrderReader
	publisher      matchpublisherv1.MatchPublisher
	snapshotStore  snapshotv1.Store
	logger         *logger.Logger
	config         *config.Config

	tradeIDGen func() string

	mu                 sync.RWMutex
	orderOffset        int64
	lastSnapshotOffset int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshotInterval    time.Duration
	snapshotOffsetDelta int64

	totalFills int64
	fillsMutex sync.RWMutex
}

// NewService creates a Service with default options.
func NewService(
	matchingEngine *matching.Engine,
	orderReader orderreaderv1.OrderReader,
	publisher matchpublisherv1.MatchPublisher,
	snapshotStore snapshotv1.Store,
	log *logger.Logger,
	cfg *config.Config,
	tradeIDGen func() string,
) *Service {
	return NewServiceWithOptions(matchingEngine, orderReader, publisher, snapshotStore, log, cfg, tradeIDGen, DefaultEngineOptions())
}

// NewServiceWithOptions creates a Service with custom snapshot cadence. The
// symbol's book is restored from snapshotStore, if one exists, before the
// service starts accepting order events.
func NewServiceWithOptions(
	matchingEngine *matching.Engine,
	orderReader orderreaderv1.OrderReader,
	publisher matchpublisherv1.MatchPublisher,
	snapshotStore snapshotv1.Store,
	log *logger.Logger,
	cfg *config.Config,
	tradeIDGen func() string,
	options *Options,
) *Service {
	s := &Service{
		matchingEngine: matchingEngine,
		orderReader:    orderReader,
		publisher:      publisher,
		snapshotStore:  snapshotStore,
		logger:         log,
		config:         cfg,
		tradeIDGen:     tradeIDGen,

		snapshotInterval:    options.SnapshotInterval,
		snapshotOffsetDelta: options.SnapshotOffsetDelta,
		orderOffset:         -1,
	}

	if err := s.loadSnapshot(context.Background()); err != nil {
		s.logger.GetZap().Fatal("failed to load snapshot", zapcore.Field{
			Key:       "error",
			Interface: err,
		})
	}

	return s
}

// Start launches order processing and snapshot management.
func (s *Service) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.runOrderProcessor()
	go s.runSnapshotManager()

	s.logger.Info("engine started", logger.Field{Key: "pair", Value: s.config.Pair})

	return nil
}

// Stop cancels the running goroutines and waits for them to exit, up to
// ctx's deadline.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("engine stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("engine stop timeout exceeded")
		return ctx.Err()
	}
}

func (s *Service) runOrderProcessor() {
	defer s.wg.Done()

	s.logger.Info("starting order processor", logger.Field{Key: "pair", Value: s.config.Pair})

	currentOffset := s.getOrderOffset()
	if currentOffset > 0 {
		currentOffset++
	}

	if err := s.orderReader.SetOffset(currentOffset); err != nil {
		s.logger.GetZap().Fatal("failed to set offset for order reader", zapcore.Field{
			Key:       "error",
			Interface: err,
		})
	}

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("order processor shutting down")
			_ = s.orderReader.Close()
			return
		default:
			msg, event, err := s.orderReader.ReadMessage(s.ctx)
			if err != nil {
				s.logger.ErrorContext(s.ctx, err, logger.Field{Key: "action", Value: "read_order_message"})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			msgCtx := util.WithRequestID(util.WithEventID(s.ctx, strconv.FormatInt(msg.Offset, 10)), "")
			eventIDField := logger.Field{Key: "event_id", Value: util.GetEventID(msgCtx)}

			if err := s.processEvent(event); err != nil {
				s.logger.ErrorContext(msgCtx, err, logger.Field{Key: "action", Value: "process_order_event"}, eventIDField)
			}

			if err := s.orderReader.CommitMessages(s.ctx, msg); err != nil {
				s.logger.ErrorContext(msgCtx, err, logger.Field{Key: "action", Value: "commit_order_message"}, eventIDField)
			}

			s.setOrderOffset(msg.Offset)
		}
	}
}

func (s *Service) runSnapshotManager() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	s.logger.Info("starting snapshot manager")

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("snapshot manager shutting down")
			return
		case <-ticker.C:
			if s.shouldCreateSnapshot() {
				s.createAndStoreSnapshot()
			}
		}
	}
}

// processEvent dispatches one decoded order event to the matching engine and
// publishes every fill it produces.
func (s *Service) processEvent(event orderreaderv1.OrderEvent) error {
	s.logger.Debug("processing order event",
		logger.Field{Key: "type", Value: event.Type},
		logger.Field{Key: "orderId", Value: event.OrderID},
		logger.Field{Key: "symbol", Value: event.Symbol},
	)

	var fills []orderbookv1.Fill
	var err error

	switch event.Type {
	case orderreaderv1.EventTypeAdd:
		_, err = s.matchingEngine.AddOrder(event.OrderID, event.Symbol, event.Side, event.Price, event.Volume, &fills)
	case orderreaderv1.EventTypeAmend:
		_, err = s.matchingEngine.AmendOrder(event.OrderID, event.NewPrice, event.NewVolume, &fills)
	case orderreaderv1.EventTypePull:
		_, err = s.matchingEngine.PullOrder(event.OrderID)
	default:
		return nil
	}

	if err != nil {
		return err
	}

	if len(fills) > 0 {
		s.publishFills(event, fills)
	}

	return nil
}

func (s *Service) publishFills(event orderreaderv1.OrderEvent, fills []orderbookv1.Fill) {
	s.fillsMutex.Lock()
	s.totalFills += int64(len(fills))
	total := s.totalFills
	s.fillsMutex.Unlock()

	s.logger.Info("fills executed",
		logger.Field{Key: "fillCount", Value: len(fills)},
		logger.Field{Key: "totalFills", Value: total},
	)

	for _, fill := range fills {
		tradeID := s.tradeIDGen()
		fillEvent := matchpublisherv1.CreateFromFill(tradeID, event.Symbol, event.OrderID, event.Side, fill)
		if err := s.publisher.PublishMatchEvent(s.ctx, fillEvent); err != nil {
			s.logger.ErrorContext(s.ctx, err, logger.Field{Key: "action", Value: "publish_fill"})
		}
	}
}

func (s *Service) shouldCreateSnapshot() bool {
	s.mu.RLock()
	currentOffset := s.orderOffset
	lastSnapshotOffset := s.lastSnapshotOffset
	s.mu.RUnlock()

	if currentOffset <= 0 {
		return false
	}

	return currentOffset-lastSnapshotOffset >= s.snapshotOffsetDelta
}

func (s *Service) createAndStoreSnapshot() {
	currentOffset := s.getOrderOffset()

	book := s.matchingEngine.GetBook(s.config.Pair)
	if book == nil {
		err := pkgerrors.NewTracer(string(pkgerrors.EngineUnknownSymbolError))
		s.logger.ErrorContext(s.ctx, err, logger.Field{Key: "pair", Value: s.config.Pair})
		return
	}

	snapshot := book.CreateSnapshot()
	snapshot.OrderOffset = currentOffset

	if err := s.snapshotStore.Store(s.ctx, snapshot); err != nil {
		s.logger.ErrorContext(s.ctx, err, logger.Field{Key: "action", Value: "store_snapshot"})
		return
	}

	s.setLastSnapshotOffset(currentOffset)
	s.logger.Info("snapshot stored",
		logger.Field{Key: "pair", Value: s.config.Pair},
		logger.Field{Key: "offset", Value: currentOffset},
	)
}

func (s *Service) getOrderOffset() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orderOffset
}

func (s *Service) setOrderOffset(offset int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderOffset = offset
}

func (s *Service) getLastSnapshotOffset() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshotOffset
}

func (s *Service) setLastSnapshotOffset(offset int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSnapshotOffset = offset
}

// loadSnapshot restores the configured pair's book from the last checkpoint,
// if one exists, and resumes the order offset from it.
func (s *Service) loadSnapshot(ctx context.Context) error {
	snapshot, err := s.snapshotStore.LoadStore(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return nil
	}

	if err := s.matchingEngine.RegisterSymbol(s.config.Pair, snapshot.OrderBookSnapshot.Unit); err != nil && !errors.Is(err, matching.ErrAlreadyRegistered) {
		return err
	}
	book := s.matchingEngine.GetBook(s.config.Pair)
	if err := book.RestoreOrderbook(snapshot); err != nil {
		return err
	}

	s.mu.Lock()
	s.orderOffset = snapshot.OrderOffset
	s.lastSnapshotOffset = snapshot.OrderOffset
	s.mu.Unlock()

	s.logger.Info("book restored from snapshot", logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset})

	return nil
}

// GetOrderOffset returns the current order offset.
func (s *Service) GetOrderOffset() int64 {
	return s.getOrderOffset()
}

// GetLastSnapshotOffset returns the last snapshot offset.
func (s *Service) GetLastSnapshotOffset() int64 {
	return s.getLastSnapshotOffset()
}

// GetTotalFills returns the total number of fills processed.
func (s *Service) GetTotalFills() int64 {
	s.fillsMutex.RLock()
	defer s.fillsMutex.RUnlock()
	return s.totalFills
}
