package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	dbtypes "github.com/pooldraw-network/pooldraw/internal/infrastructure/db/types"
	"github.com/timshannon/badgerhold/v4"
)

const eventStoreDir = "auction-events"

type eventsDTO struct {
	Events [][]byte
}

type eventRepository struct {
	store     *badgerhold.Store
	lock      *sync.Mutex
	chUpdates chan *domain.Auction
	handler   func(auction *domain.Auction)
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewAuctionEventRepository(config ...interface{}) (dbtypes.EventStore, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}

	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, eventStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open auction events store: %s", err)
	}
	repo := &eventRepository{
		store:     store,
		lock:      &sync.Mutex{},
		chUpdates: make(chan *domain.Auction),
		done:      make(chan struct{}),
	}
	go repo.listen()
	return repo, nil
}

func (r *eventRepository) Save(
	ctx context.Context, id string, events ...domain.AuctionEvent,
) error {
	allEvents, err := r.get(ctx, id)
	if err != nil {
		return err
	}

	// Save takes the aggregate's full event list and appends whatever
	// is not stored yet, so resubmitting the same list is idempotent.
	if len(events) > len(allEvents) {
		allEvents = append(allEvents, events[len(allEvents):]...)
	}
	if err := r.upsert(ctx, id, allEvents); err != nil {
		return err
	}
	r.wg.Add(1)
	go r.publishEvents(allEvents)
	return nil
}

func (r *eventRepository) Load(
	ctx context.Context, id string,
) (*domain.Auction, error) {
	events, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.NewAuctionFromEvents(events), nil
}

func (r *eventRepository) RegisterEventsHandler(
	handler func(auction *domain.Auction),
) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.handler = handler
}

func (r *eventRepository) Close() {
	close(r.done)
	r.wg.Wait()
	close(r.chUpdates)
	r.store.Close()
}

func (r *eventRepository) get(
	ctx context.Context, id string,
) ([]domain.AuctionEvent, error) {
	dto := eventsDTO{}
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxGet(tx, id, &dto)
	} else {
		err = r.store.Get(id, &dto)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get events with id %s: %s", id, err)
	}

	return deserializeEvents(dto.Events)
}

func (r *eventRepository) upsert(
	ctx context.Context, id string, events []domain.AuctionEvent,
) error {
	buf, err := serializeEvents(events)
	if err != nil {
		return err
	}
	dto := eventsDTO{Events: buf}
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxUpsert(tx, id, dto)
	} else {
		err = r.store.Upsert(id, dto)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert events with id %s: %s", id, err)
	}
	return nil
}

func (r *eventRepository) listen() {
	for {
		select {
		case <-r.done:
			return
		case auction := <-r.chUpdates:
			r.runHandler(auction)
		}
	}
}

func (r *eventRepository) publishEvents(events []domain.AuctionEvent) {
	defer r.wg.Done()
	auction := domain.NewAuctionFromEvents(events)
	select {
	case <-r.done:
		return
	case r.chUpdates <- auction:
	}
}

func (r *eventRepository) runHandler(auction *domain.Auction) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.handler == nil {
		return
	}
	r.handler(auction)
}
