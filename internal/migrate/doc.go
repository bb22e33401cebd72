// Package migrate promotes staged records into the production store.
//
// Every staged person is resolved against production through a fixed key
// cascade (national id, email, name and birth date, name and phone, then a
// name prefix for contact-less records). A hit is merged by filling only
// null production columns; a miss creates the person with a placeholder
// email. Students, leads and documents each migrate in their own
// transaction, so one bad record never blocks the rest of the run. A dry run
// wraps the whole run in one transaction that always rolls back and gives
// each record a savepoint, so its counters match a real run. Staged persons
// the non-person filter rejects never reach production.
package migrate
