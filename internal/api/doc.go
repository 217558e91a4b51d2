// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

/*
Package api exposes the event engine and interaction coordinator over HTTP
using the Chi router.

# Routes

Everything lives under /api/v1:

	GET    /events                          native listing
	POST   /events                          create a native event
	GET    /events/{id}                     one native event
	PUT    /events/{id}                     partial update
	DELETE /events/{id}                     delete with cascade
	POST   /events/{id}/like                like (DELETE to unlike)
	POST   /events/{id}/save                save (DELETE to unsave)
	POST   /events/{id}/register            register, capacity aware
	POST   /events/{id}/smart-register      create or update a participation
	PUT    /events/{id}/participation       upsert the caller's participation
	GET    /external-events                 external listing
	GET    /external-events/{id}            one external event
	POST   /external-events/{id}/like       like (DELETE to unlike)
	POST   /external-events/{id}/save       save (DELETE to unsave)
	GET    /all-events                      both origins, page split between them
	GET    /events-near                     geo-proximity search
	GET    /users/{userID}/liked            liked events of both origins
	GET    /users/{userID}/saved            saved events of both origins
	GET    /users/{userID}/participated     native events with the user's participation
	GET    /users/{userID}/created          native events the user created

Probes are served on /health/live and /health/ready and Prometheus metrics on
/metrics.

# Identity

The gateway in front of the service authenticates callers and forwards the
acting user in X-User-ID. Reads without it are anonymous: every per-user flag
is false. Writes require it.

# Filters

Listings accept the shared filter as query parameters: name, location,
category, tags (comma separated, any match), start_from, start_to, end_from,
end_to (RFC3339), is_public, creator_id, status, has_available_capacity,
source, include_internal, include_external and ignore_dates. Ordering uses
sort (START_DATE, CREATED_AT, NAME, CATEGORY, SOURCE) and direction (ASC,
DESC); paging uses skip and take.

# Responses

Every response uses the APIResponse envelope. Interaction writes return the
updated event with the caller's own write applied to is_liked_by_user and
is_saved_by_user, even if a secondary projection lags.
*/
package api
