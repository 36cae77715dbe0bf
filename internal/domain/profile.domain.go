package domain

import "time"

// FileRef points at a stored upload.
type FileRef struct {
	Path       string     `json:"path"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
}

// Profile holds the driver-facing descriptive fields, 1:1 with User.
type Profile struct {
	UserID               string    `json:"userId"`
	FirstName            string    `json:"firstName"`
	LastName             string    `json:"lastName"`
	Age                  *int      `json:"age,omitempty"`
	Languages            []string  `json:"languages"`
	Level                string    `json:"level"`
	YearsOfExperience    *int      `json:"yearsOfExperience,omitempty"`
	LevelOfEducation     string    `json:"levelOfEducation"`
	FreelancerOrEmployed string    `json:"freelancerOrEmployed"`
	CarOwnerOrDriver     []string  `json:"carOwnerOrDriver"`
	IDNumber             string    `json:"idNumber"`
	PassportNumber       string    `json:"passportNumber"`
	TRANumber            string    `json:"traNumber"`
	Bio                  string    `json:"bio"`
	ProfilePicture       *FileRef  `json:"profilePicture,omitempty"`
	IDImage              *FileRef  `json:"idImage,omitempty"`
	PassportImage        *FileRef  `json:"passportImage,omitempty"`
	TRAImage             *FileRef  `json:"traImage,omitempty"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

const (
	LevelGold   = "gold"
	LevelSilver = "silver"
	LevelBronze = "bronze"
)

func IsValidLevel(level string) bool {
	switch level {
	case LevelGold, LevelSilver, LevelBronze, "":
		return true
	}
	return false
}

func IsValidEmployment(v string) bool {
	switch v {
	case "freelancer", "employed", "":
		return true
	}
	return false
}
