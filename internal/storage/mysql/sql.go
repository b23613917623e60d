package mysql

const upsertListingsPrefix = `
INSERT INTO listings
  (id, name, host_id, host_name, neighbourhood, latitude, longitude,
   room_type, price, minimum_nights, number_of_reviews, availability_365)
VALUES `

// listingRowPlaceholders matches the column list of upsertListingsPrefix.
const listingRowPlaceholders = "(?,?,?,?,?,?,?,?,?,?,?,?)"

// Use VALUES(col) for broad compatibility (MySQL 5.7 and 8.0).
const upsertListingsOnDup = `
ON DUPLICATE KEY UPDATE
  name              = VALUES(name),
  host_id           = VALUES(host_id),
  host_name         = VALUES(host_name),
  neighbourhood     = VALUES(neighbourhood),
  latitude          = VALUES(latitude),
  longitude         = VALUES(longitude),
  room_type         = VALUES(room_type),
  price             = VALUES(price),
  minimum_nights    = VALUES(minimum_nights),
  number_of_reviews = VALUES(number_of_reviews),
  availability_365  = VALUES(availability_365),
  updated_at        = CURRENT_TIMESTAMP
`

const insertSnapshotSQL = `
INSERT INTO snapshots (source, row_count)
VALUES (?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Listing ids are digit strings; ordering by length then value keeps numeric
// order, which is the order of the published CSV.
const listListingsSQL = `
SELECT id, COALESCE(name, ''), host_id, COALESCE(host_name, ''), neighbourhood,
       latitude, longitude, room_type, price, minimum_nights, number_of_reviews, availability_365
FROM listings
ORDER BY CHAR_LENGTH(id), id
`

const countListingsSQL = `SELECT COUNT(*) FROM listings`

const latestSnapshotSQL = `
SELECT source, row_count, taken_at
FROM snapshots
ORDER BY id DESC
LIMIT 1
`
