package driver

// SQLite statements.
const (
	sqliteSchema = `
		CREATE TABLE IF NOT EXISTS predictions (
			id          TEXT PRIMARY KEY,
			tree_id     TEXT NOT NULL,
			tree_desc   TEXT NOT NULL DEFAULT '',
			tree_author TEXT NOT NULL DEFAULT '',
			link        TEXT NOT NULL,
			last_image  TEXT NOT NULL,
			created_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);

		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    INTEGER NOT NULL
		);
	`

	sqliteInsertPrediction = `
		INSERT INTO predictions (id, tree_id, tree_desc, tree_author, link, last_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	sqliteListPredictions = `
		SELECT id, tree_id, tree_desc, tree_author, link, last_image, created_at
		FROM predictions
		ORDER BY created_at DESC, rowid DESC
	`

	sqliteGetPrediction = `
		SELECT id, tree_id, tree_desc, tree_author, link, last_image, created_at
		FROM predictions
		WHERE id = ?
	`

	sqliteDeletePrediction = `DELETE FROM predictions WHERE id = ?`

	sqliteInsertUser = `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO NOTHING
	`

	sqliteGetUserByName = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = ?
	`
)

// Cypher statements for the Memgraph backend.
const (
	SavePredictionQuery = `
		OPTIONAL MATCH (existing:Prediction {id: $id})
		WITH existing
		WHERE existing IS NULL
		CREATE (p:Prediction {
			id: $id,
			tree_id: $tree_id,
			tree_desc: $tree_desc,
			tree_author: $tree_author,
			link: $link,
			last_image: $last_image,
			created_at: $created_at
		})
		RETURN p.id AS id
	`

	ListPredictionsQuery = `
		MATCH (p:Prediction)
		RETURN p.id AS id, p.tree_id AS tree_id, p.tree_desc AS tree_desc,
			p.tree_author AS tree_author, p.link AS link,
			p.last_image AS last_image, p.created_at AS created_at
		ORDER BY p.created_at DESC
	`

	GetPredictionQuery = `
		MATCH (p:Prediction {id: $id})
		RETURN p.id AS id, p.tree_id AS tree_id, p.tree_desc AS tree_desc,
			p.tree_author AS tree_author, p.link AS link,
			p.last_image AS last_image, p.created_at AS created_at
	`

	DeletePredictionQuery = `
		MATCH (p:Prediction {id: $id})
		WITH p, p.id AS id
		DETACH DELETE p
		RETURN id
	`

	SaveUserQuery = `
		OPTIONAL MATCH (existing:User {username: $username})
		WITH existing
		WHERE existing IS NULL
		CREATE (u:User {
			id: $id,
			username: $username,
			password_hash: $password_hash,
			created_at: $created_at
		})
		RETURN u.id AS id
	`

	GetUserByNameQuery = `
		MATCH (u:User {username: $username})
		RETURN u.id AS id, u.username AS username,
			u.password_hash AS password_hash, u.created_at AS created_at
	`
)
