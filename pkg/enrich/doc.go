// Package enrich attaches optional, best-effort data to resource records
// after relationship resolution: point-in-time CPU/memory usage from the
// metrics API, and recent log lines per pod container. Each pass is
// independently toggleable and independently tolerant of unavailability;
// neither alters identities or relationships.
package enrich
