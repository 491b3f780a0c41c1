// Package postgres is the durable credential store. It runs on database/sql
// with the pgx stdlib driver, wrapped in sqlx for struct scanning, and owns
// its schema through embedded goose migrations.
//
// Email uniqueness is enforced by the users_email_key constraint, so two
// concurrent AddUser calls for one email cannot both commit.
package postgres
