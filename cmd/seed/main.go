package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"clinic-appointment-engine/cmd/bootstrap"
	"clinic-appointment-engine/config"
	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/internal/infrastructure/database"
	"clinic-appointment-engine/pkg/jwt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	clinicCount  = 5
	doctorCount  = 40
	maxClinicsPD = 2
)

var specializations = []string{
	"general practice",
	"cardiology",
	"dermatology",
	"pediatrics",
	"orthopedics",
	"neurology",
	"ophthalmology",
	"ent",
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var shifts = [][2]string{
	{"08:00", "12:00"},
	{"09:00", "15:00"},
	{"13:00", "17:00"},
	{"16:00", "21:00"},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := bootstrap.NewLogger(cfg.App.LogLevel)
	log.Info("seed starting")

	db, err := database.NewPostgresConnection(cfg.DB, log)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	gofakeit.Seed(time.Now().UnixNano())

	var doctors []entity.Doctor
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clinics, err := seedClinics(tx, clinicCount)
		if err != nil {
			return fmt.Errorf("seed clinics: %w", err)
		}
		doctors, err = seedDoctors(tx, doctorCount)
		if err != nil {
			return fmt.Errorf("seed doctors: %w", err)
		}
		return seedAffiliations(tx, clinics, doctors)
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	printTokens(log, cfg.JWT, doctors[0].ID)
	log.Info("seed complete")
}

func seedClinics(tx *gorm.DB, count int) ([]entity.Clinic, error) {
	clinics := make([]entity.Clinic, count)
	for i := range clinics {
		clinics[i] = entity.Clinic{
			ID:          uuid.New(),
			Name:        gofakeit.Company() + " Clinic",
			Address:     gofakeit.Street() + ", " + gofakeit.City(),
			Latitude:    gofakeit.Latitude(),
			Longitude:   gofakeit.Longitude(),
			OpeningTime: "08:00",
			ClosingTime: "21:00",
			IsActive:    true,
		}
	}
	if err := tx.Create(&clinics).Error; err != nil {
		return nil, err
	}
	return clinics, nil
}

func seedDoctors(tx *gorm.DB, count int) ([]entity.Doctor, error) {
	doctors := make([]entity.Doctor, count)
	for i := range doctors {
		specs := pq.StringArray{specializations[gofakeit.Number(0, len(specializations)-1)]}
		if gofakeit.Bool() {
			specs = append(specs, specializations[0])
		}
		doctors[i] = entity.Doctor{
			ID:              uuid.New(),
			FullName:        "Dr. " + gofakeit.Name(),
			Specializations: specs,
			IsVerified:      gofakeit.Number(1, 10) > 1,
			IsActive:        true,
			Rating:          float64(gofakeit.Number(250, 500)) / 100,
			TotalReviews:    gofakeit.Number(0, 400),
			ExperienceYears: gofakeit.Number(1, 35),
		}
	}
	if err := tx.Create(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}

func seedAffiliations(tx *gorm.DB, clinics []entity.Clinic, doctors []entity.Doctor) error {
	var affiliations []entity.Affiliation
	for _, doctor := range doctors {
		picked := map[int]bool{}
		for n := gofakeit.Number(1, maxClinicsPD); n > 0; n-- {
			c := gofakeit.Number(0, len(clinics)-1)
			if picked[c] {
				continue
			}
			picked[c] = true

			shift := shifts[gofakeit.Number(0, len(shifts)-1)]
			affiliations = append(affiliations, entity.Affiliation{
				ID:              uuid.New(),
				DoctorID:        doctor.ID,
				ClinicID:        clinics[c].ID,
				Status:          entity.AffiliationStatusActive,
				ConsultationFee: decimal.NewFromInt(int64(gofakeit.Number(10, 60) * 5000)),
				WorkingDays:     pickWeekdays(),
				StartTime:       shift[0],
				EndTime:         shift[1],
			})
		}
	}
	return tx.Omit("Doctor", "Clinic").Create(&affiliations).Error
}

func pickWeekdays() pq.StringArray {
	days := pq.StringArray{}
	for _, d := range weekdays {
		if gofakeit.Number(1, 10) <= 7 {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		days = append(days, weekdays[0])
	}
	return days
}

// printTokens issues short-lived development tokens for each role.
func printTokens(log *logrus.Logger, cfg config.JWTConfig, doctorID uuid.UUID) {
	jwtService := jwt.NewJWTService(cfg)
	users := []struct {
		role   string
		id     uuid.UUID
		roleID int
	}{
		{entity.RoleAdmin, uuid.New(), entity.RoleIDAdmin},
		{entity.RoleDoctor, doctorID, entity.RoleIDDoctor},
		{entity.RolePatient, uuid.New(), entity.RoleIDPatient},
	}

	for _, u := range users {
		token, tokenID, err := jwtService.GenerateAccessToken(u.id, gofakeit.Email(), u.roleID)
		if err != nil {
			log.Warnf("Failed to issue %s token: %v", u.role, err)
			continue
		}
		log.WithFields(logrus.Fields{
			"role":     u.role,
			"user_id":  u.id,
			"token_id": tokenID,
		}).Info("development token")
		fmt.Printf("%s\t%s\n", u.role, token)
	}
}
