// Package db embeds the storefront schema so binaries can migrate on boot.
package db

import _ "embed"

// Schema holds the idempotent DDL for every storefront table.
//
//go:embed migrations/001_schema.sql
var Schema string
