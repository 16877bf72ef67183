package eventBusTypes

import (
	"context"
	"sync"
	"time"
)

type Event struct {
	Name string
	Data any
}

const (
	Event_SnapshotRefreshed = "snapshotRefreshed"
	Event_PhaseAllocated    = "phaseAllocated"
)

type ConsumerId string

type Consumer struct {
	Id      ConsumerId
	Context context.Context
	Channel chan *Event
}

type ConsumerList struct {
	mu        sync.Mutex
	consumers []*Consumer
}

func NewConsumerList() *ConsumerList {
	return &ConsumerList{
		consumers: make([]*Consumer, 0),
	}
}

func (cl *ConsumerList) Add(consumer *Consumer) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.consumers = append(cl.consumers, consumer)
}

func (cl *ConsumerList) Remove(consumer *Consumer) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for i, c := range cl.consumers {
		if c.Id == consumer.Id {
			cl.consumers = append(cl.consumers[:i], cl.consumers[i+1:]...)
			break
		}
	}
}

func (cl *ConsumerList) GetAll() []*Consumer {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.consumers
}

type IEventBus interface {
	Subscribe(consumer *Consumer)
	Unsubscribe(consumer *Consumer)
	Publish(event *Event)
}

type SnapshotRefreshedData struct {
	FetchedAt time.Time
	TotalRows int
	Accepted  int
	Rejected  int
}

type PhaseAllocatedData struct {
	PhaseNumber     uint64
	Participants    int
	EmptyPopulation bool
}
