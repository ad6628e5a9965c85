package domain

import "github.com/google/uuid"

type UserID = uuid.UUID
type TokenID = uuid.UUID
type DeviceID = uuid.UUID
type CredentialID = uuid.UUID
type FileID = uuid.UUID
