// Package entities defines the database models for the capture store.
//
// The legacy tables (recordings, transcripts, embeddings, meetings) predate
// the normalized schema. The target entities (KnowledgeCapture and its
// ActionItem/Decision/FollowUp children) are created by the schema migration
// from the canonical schema definition, never by AutoMigrate.
package entities
