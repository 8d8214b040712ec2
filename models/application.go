package models

import "time"

// ApplicationStatus represents the workflow stage of a credit application
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
)

// Statuses lists the four valid statuses in pipeline order.
var Statuses = []ApplicationStatus{StatusPending, StatusUnderReview, StatusApproved, StatusRejected}

func (s ApplicationStatus) Valid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

type Application struct {
	ID      string `json:"id" gorm:"primaryKey;size:36" bson:"_id"`
	OwnerID string `json:"userId" gorm:"not null;index;size:36" bson:"userId"`
	Owner   *User  `json:"-" gorm:"foreignKey:OwnerID;references:ID" bson:"-"`

	// Consumer
	Nama             string `json:"nama" gorm:"not null" bson:"nama"`
	NIK              string `json:"nik" gorm:"not null" bson:"nik"`
	TanggalLahir     string `json:"tanggalLahir" gorm:"not null" bson:"tanggalLahir"`
	StatusPerkawinan string `json:"statusPerkawinan" gorm:"not null" bson:"statusPerkawinan"`
	DataPasangan     string `json:"dataPasangan" bson:"dataPasangan"`

	// Vehicle
	Dealer         string  `json:"dealer" gorm:"not null" bson:"dealer"`
	MerkKendaraan  string  `json:"merkKendaraan" gorm:"not null" bson:"merkKendaraan"`
	ModelKendaraan string  `json:"modelKendaraan" gorm:"not null" bson:"modelKendaraan"`
	TipeKendaraan  string  `json:"tipeKendaraan" bson:"tipeKendaraan"`
	WarnaKendaraan string  `json:"warnaKendaraan" bson:"warnaKendaraan"`
	HargaKendaraan float64 `json:"hargaKendaraan" gorm:"not null" bson:"hargaKendaraan"`

	// Loan
	Asuransi         string  `json:"asuransi" bson:"asuransi"`
	DownPayment      float64 `json:"downPayment" gorm:"not null" bson:"downPayment"`
	LamaKredit       int     `json:"lamaKredit" gorm:"not null" bson:"lamaKredit"`
	AngsuranPerBulan float64 `json:"angsuranPerBulan" gorm:"not null" bson:"angsuranPerBulan"`

	Status     ApplicationStatus `json:"status" gorm:"not null;size:20;default:'pending';index" bson:"status"`
	ReviewedBy *string           `json:"reviewedBy" gorm:"size:36" bson:"reviewedBy"`
	ApprovedBy *string           `json:"approvedBy" gorm:"size:36" bson:"approvedBy"`
	Notes      string            `json:"notes" bson:"notes"`
	CreatedAt  time.Time         `json:"createdAt" gorm:"index" bson:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt" bson:"updatedAt"`

	// User is filled on reads from Owner.
	User *OwnerView `json:"user,omitempty" gorm:"-" bson:"-"`
}

// StatusUpdate is the single atomic write applied by a status transition.
// Nil stamp pointers leave the stored value untouched.
type StatusUpdate struct {
	Status     ApplicationStatus
	Notes      string
	ReviewedBy *string
	ApprovedBy *string
	UpdatedAt  time.Time
}

// ApplicationFilter scopes list and count queries. Empty fields match everything.
type ApplicationFilter struct {
	OwnerID string
	Status  ApplicationStatus
}

type Stats struct {
	Total       int64 `json:"total"`
	Pending     int64 `json:"pending"`
	UnderReview int64 `json:"underReview"`
	Approved    int64 `json:"approved"`
	Rejected    int64 `json:"rejected"`
}

// Add folds a per-status count into the totals.
func (s *Stats) Add(status ApplicationStatus, n int64) {
	s.Total += n
	switch status {
	case StatusPending:
		s.Pending += n
	case StatusUnderReview:
		s.UnderReview += n
	case StatusApproved:
		s.Approved += n
	case StatusRejected:
		s.Rejected += n
	}
}
