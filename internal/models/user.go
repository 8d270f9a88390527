package models

import "time"

type User struct {
	ID             string    `json:"id" dynamodbav:"id"`
	Email          string    `json:"email" dynamodbav:"email"`
	HashedPassword string    `json:"-" dynamodbav:"hashedPassword"`
	FullName       *string   `json:"full_name" dynamodbav:"fullName,omitempty"`
	IsActive       bool      `json:"is_active" dynamodbav:"isActive"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"createdAt"`
}
