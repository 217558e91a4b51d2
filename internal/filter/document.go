// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package filter

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Document translates f into a query document for the externalEvents
// collection. Native-only criteria are ignored here; callers consult
// Excludes before querying.
func Document(f *EventFilter) bson.D {
	q := bson.D{}

	if f.Name != "" {
		q = append(q, bson.E{Key: "name", Value: containsFoldRegex(f.Name)})
	}
	if f.Location != "" {
		q = append(q, bson.E{Key: "location.address", Value: containsFoldRegex(f.Location)})
	}
	if f.Category != "" {
		q = append(q, bson.E{Key: "category", Value: f.Category})
	}
	if f.Source != "" {
		q = append(q, bson.E{Key: "source", Value: f.Source})
	}

	if !f.IgnoreDates {
		if r := dateRange(f.StartDateFrom, f.StartDateTo); r != nil {
			q = append(q, bson.E{Key: "startDate", Value: r})
		}
		if r := dateRange(f.EndDateFrom, f.EndDateTo); r != nil {
			q = append(q, bson.E{Key: "endDate", Value: r})
		}
	}

	if tags := f.tags(); tags != nil {
		q = append(q, bson.E{Key: "tags", Value: bson.D{{Key: "$in", Value: tags}}})
	}

	return q
}

// DocumentSort translates o into a sort document with _id as the tiebreaker.
func DocumentSort(o Order) bson.D {
	o = o.Normalize()

	dir := 1
	if o.Direction == Desc {
		dir = -1
	}

	var field string
	switch o.Field {
	case SortCreatedAt:
		field = "createdAt"
	case SortName:
		field = "name"
	case SortCategory:
		field = "category"
	case SortSource:
		return bson.D{{Key: "source", Value: dir}, {Key: "startDate", Value: dir}, {Key: "_id", Value: 1}}
	default:
		field = "startDate"
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}
}

// DocumentCollation compares strings case-insensitively, matching the lower()
// ordering RelationalOrder applies to name and category.
func DocumentCollation() *options.Collation {
	return &options.Collation{Locale: "en", Strength: 2}
}

func containsFoldRegex(v string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
}

// dateRange is an inclusive range document, nil when unbounded.
func dateRange(from, to *time.Time) bson.D {
	var r bson.D
	if from != nil {
		r = append(r, bson.E{Key: "$gte", Value: *from})
	}
	if to != nil {
		r = append(r, bson.E{Key: "$lte", Value: *to})
	}
	return r
}
