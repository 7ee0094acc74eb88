// Package imgshare is an image sharing service.
//
// Features:
// - Anonymous and authenticated image uploads with public/private visibility
// - Comments, votes, favourites and reports on images
// - Trending images ranked by distinct voters in the last 24 hours
// - Favourite downloads as a zip archive
// - Local filesystem, MinIO or Google Cloud Storage for image payloads
//
// Example usage:
//
//	IMGSHARE_AUTH__JWT_SECRET=change-me go run .
//
// Configuration:
//
//	See config.yaml or the IMGSHARE_* environment variables (internal/config)
//
// API Documentation:
//
//	Routes are wired in internal/api/handler.go
package main
