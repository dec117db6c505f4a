// Package memory keeps every repository in process memory. It backs the
// "memory" database driver and the test suites.
package memory

import (
	"context"
	"sync"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type db struct {
	mu     sync.RWMutex
	nextID int64

	users        map[int64]*model.User
	profiles     map[int64]*model.Profile // keyed by user id
	medicines    map[int64]*model.Medicine
	vitals       map[int64]*model.Vital
	files        map[int64]*model.MedicalFile
	appointments map[int64]*model.Appointment
	messages     map[int64]*model.ChatMessage
}

func (d *db) id() int64 {
	d.nextID++
	return d.nextID
}

// NewStore returns a Store whose repositories share one in-memory database.
func NewStore() repository.Store {
	d := &db{
		users:        make(map[int64]*model.User),
		profiles:     make(map[int64]*model.Profile),
		medicines:    make(map[int64]*model.Medicine),
		vitals:       make(map[int64]*model.Vital),
		files:        make(map[int64]*model.MedicalFile),
		appointments: make(map[int64]*model.Appointment),
		messages:     make(map[int64]*model.ChatMessage),
	}
	return repository.Store{
		Users:        &userRepository{d},
		Profiles:     &profileRepository{d},
		Medicines:    &medicineRepository{d},
		Vitals:       &vitalRepository{d},
		Files:        &fileRepository{d},
		Appointments: &appointmentRepository{d},
		Chat:         &chatRepository{d},
		Ping:         func(context.Context) error { return nil },
	}
}
