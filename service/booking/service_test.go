package booking

import (
	"fmt"
	"sync"
	"testing"

	"github.com/adjoaboateng/CareerHub-server/cmd/models"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Serialize access so concurrent bookings queue instead of tripping
	// SQLite's single-writer lock.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Expert{},
		&models.Appointment{},
	))

	return db
}

func createExpert(t *testing.T, db *gorm.DB, availability models.AvailabilityMap) *models.Expert {
	t.Helper()

	expert := &models.Expert{
		Name:         "Dr. Mensah",
		Title:        "Career Counselor",
		Mode:         models.ModeInPerson,
		Availability: datatypes.NewJSONType(availability),
	}
	require.NoError(t, db.Create(expert).Error)
	return expert
}

func TestNormalizeDate(t *testing.T) {
	got, err := NormalizeDate("2025-07-10")
	require.NoError(t, err)
	require.Equal(t, "2025-07-10", got)

	got, err = NormalizeDate("2025-7-6")
	require.NoError(t, err)
	require.Equal(t, "2025-07-06", got)

	_, err = NormalizeDate("July 6th")
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = NormalizeDate("")
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestListAvailableSlotsUnknownExpert(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	slots, err := svc.ListAvailableSlots(9999, "2025-07-10")
	require.NoError(t, err)
	require.Empty(t, slots)
	require.NotNil(t, slots)
}

func TestListAvailableSlotsNoConfiguration(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{})

	slots, err := svc.ListAvailableSlots(expert.ID, "2025-07-10")
	require.NoError(t, err)
	require.Empty(t, slots)
}

func TestListAvailableSlotsPreservesOrder(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-10": {"9:00am", "10:00am", "2:00pm", "3:30pm"},
	})

	slots, err := svc.ListAvailableSlots(expert.ID, "2025-07-10")
	require.NoError(t, err)
	require.Equal(t, []string{"9:00am", "10:00am", "2:00pm", "3:30pm"}, slots)
}

func TestListAvailableSlotsDedupesConfigured(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-10": {"2:00pm", "3:30pm", "2:00pm"},
	})

	slots, err := svc.ListAvailableSlots(expert.ID, "2025-07-10")
	require.NoError(t, err)
	require.Equal(t, []string{"2:00pm", "3:30pm"}, slots)
}

func TestListAvailableSlotsAcceptsUnpaddedDate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-06": {"2:00pm"},
	})

	slots, err := svc.ListAvailableSlots(expert.ID, "2025-7-6")
	require.NoError(t, err)
	require.Equal(t, []string{"2:00pm"}, slots)
}

func TestBookSlotRemovesFromAvailability(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-10": {"2:00pm", "3:30pm"},
	})

	appointment, err := svc.BookSlot(BookingRequest{
		StudentID:    1,
		StudentEmail: "ama@st.ug.edu.gh",
		ExpertID:     expert.ID,
		Date:         "2025-07-10",
		Slot:         "2:00pm",
		Topic:        "CV review",
	})
	require.NoError(t, err)
	require.Equal(t, "confirmed", appointment.Status)
	require.Equal(t, expert.Name, appointment.ExpertName)
	require.Equal(t, expert.Mode, appointment.Mode)

	slots, err := svc.ListAvailableSlots(expert.ID, "2025-07-10")
	require.NoError(t, err)
	require.Equal(t, []string{"3:30pm"}, slots)
}

func TestBookSlotSameSlotOtherDateStaysOpen(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-10": {"2:00pm"},
		"2025-07-11": {"2:00pm"},
	})

	_, err := svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-10", Slot: "2:00pm", Topic: "CV review",
	})
	require.NoError(t, err)

	// The conflict is keyed by expert, date, and slot; the same label on the
	// next day must remain bookable.
	slots, err := svc.ListAvailableSlots(expert.ID, "2025-07-11")
	require.NoError(t, err)
	require.Equal(t, []string{"2:00pm"}, slots)

	_, err = svc.BookSlot(BookingRequest{
		StudentID: 2, StudentEmail: "kofi@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-11", Slot: "2:00pm", Topic: "Mock interview",
	})
	require.NoError(t, err)
}

func TestBookSlotConflict(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-10": {"2:00pm"},
	})

	_, err := svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-10", Slot: "2:00pm", Topic: "CV review",
	})
	require.NoError(t, err)

	_, err = svc.BookSlot(BookingRequest{
		StudentID: 2, StudentEmail: "kofi@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-10", Slot: "2:00pm", Topic: "Mock interview",
	})
	require.ErrorIs(t, err, ErrSlotUnavailable)

	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestBookSlotValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-10": {"2:00pm"},
	})

	_, err := svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-10", Slot: "2:00pm", Topic: "   ",
	})
	require.ErrorIs(t, err, ErrTopicRequired)

	_, err = svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "not-a-date", Slot: "2:00pm", Topic: "CV review",
	})
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: 9999, Date: "2025-07-10", Slot: "2:00pm", Topic: "CV review",
	})
	require.ErrorIs(t, err, ErrExpertNotFound)

	// A slot the expert never configured is unavailable, not a validation error
	_, err = svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-10", Slot: "11:00pm", Topic: "CV review",
	})
	require.ErrorIs(t, err, ErrSlotUnavailable)

	// None of the rejected requests may leave a row behind
	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestBookSlotNormalizesDate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-06": {"2:00pm"},
	})

	appointment, err := svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-7-6", Slot: "2:00pm", Topic: "CV review",
	})
	require.NoError(t, err)
	require.Equal(t, "2025-07-06", appointment.Date)

	// Booking the padded form of the same date must now conflict
	_, err = svc.BookSlot(BookingRequest{
		StudentID: 2, StudentEmail: "kofi@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-06", Slot: "2:00pm", Topic: "Mock interview",
	})
	require.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBookSlotConcurrentSameSlot(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-10": {"2:00pm"},
	})

	const attempts = 10

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.BookSlot(BookingRequest{
				StudentID:    uint(i + 1),
				StudentEmail: fmt.Sprintf("student%d@st.ug.edu.gh", i+1),
				ExpertID:     expert.ID,
				Date:         "2025-07-10",
				Slot:         "2:00pm",
				Topic:        "CV review",
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ErrSlotUnavailable)
		}
	}
	require.Equal(t, 1, successes)

	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCancelAppointmentFreesSlot(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-10": {"2:00pm"},
	})

	appointment, err := svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-10", Slot: "2:00pm", Topic: "CV review",
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelAppointment(appointment.ID, 1, false))

	slots, err := svc.ListAvailableSlots(expert.ID, "2025-07-10")
	require.NoError(t, err)
	require.Equal(t, []string{"2:00pm"}, slots)

	// The slot is bookable again, including by another student
	_, err = svc.BookSlot(BookingRequest{
		StudentID: 2, StudentEmail: "kofi@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-10", Slot: "2:00pm", Topic: "Mock interview",
	})
	require.NoError(t, err)
}

func TestCancelAppointmentOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-10": {"2:00pm"},
	})

	appointment, err := svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-10", Slot: "2:00pm", Topic: "CV review",
	})
	require.NoError(t, err)

	err = svc.CancelAppointment(appointment.ID, 2, false)
	require.ErrorIs(t, err, ErrNotAppointmentOwner)

	// The appointment must survive the rejected attempt
	var count int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// An admin may delete regardless of ownership
	require.NoError(t, svc.CancelAppointment(appointment.ID, 2, true))

	err = svc.CancelAppointment(appointment.ID, 1, false)
	require.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestStudentAppointmentsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	expert := createExpert(t, db, models.AvailabilityMap{
		"2025-07-10": {"2:00pm", "3:30pm"},
	})

	first, err := svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-10", Slot: "2:00pm", Topic: "CV review",
	})
	require.NoError(t, err)

	second, err := svc.BookSlot(BookingRequest{
		StudentID: 1, StudentEmail: "ama@st.ug.edu.gh",
		ExpertID: expert.ID, Date: "2025-07-10", Slot: "3:30pm", Topic: "Mock interview",
	})
	require.NoError(t, err)

	// Another student's booking must not show up
	other := createExpert(t, db, models.AvailabilityMap{"2025-07-10": {"9:00am"}})
	_, err = svc.BookSlot(BookingRequest{
		StudentID: 2, StudentEmail: "kofi@st.ug.edu.gh",
		ExpertID: other.ID, Date: "2025-07-10", Slot: "9:00am", Topic: "Job search",
	})
	require.NoError(t, err)

	appointments, err := svc.StudentAppointments(1)
	require.NoError(t, err)
	require.Len(t, appointments, 2)
	require.ElementsMatch(t,
		[]uint{first.ID, second.ID},
		[]uint{appointments[0].ID, appointments[1].ID},
	)
	require.False(t, appointments[0].BookedAt.Before(appointments[1].BookedAt))
}

func TestAllAppointmentsPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	slots := make([]string, 5)
	for i := range slots {
		slots[i] = fmt.Sprintf("%d:00pm", i+1)
	}
	expert := createExpert(t, db, models.AvailabilityMap{"2025-07-10": slots})

	for i, slot := range slots {
		_, err := svc.BookSlot(BookingRequest{
			StudentID:    uint(i + 1),
			StudentEmail: fmt.Sprintf("student%d@st.ug.edu.gh", i+1),
			ExpertID:     expert.ID,
			Date:         "2025-07-10",
			Slot:         slot,
			Topic:        "CV review",
		})
		require.NoError(t, err)
	}

	page1, total, err := svc.AllAppointments(1, 2)
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, page1, 2)

	page3, _, err := svc.AllAppointments(3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
}
