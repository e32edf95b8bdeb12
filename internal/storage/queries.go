package storage

const (
	// Transaction queries
	CreateTransactionQuery = `
		INSERT INTO transactions (id, amount, transaction_type, description, is_fraud, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	// Перевод false -> true; уже помеченные строки не трогаем,
	// чтобы конкурентные проходы классификации не слали дубль-алерты
	MarkTransactionFraudQuery = `
		UPDATE transactions
		SET is_fraud = TRUE
		WHERE id = $1 AND is_fraud = FALSE
	`

	TransactionExistsQuery = `
		SELECT EXISTS(
			SELECT 1
			FROM transactions
			WHERE id = $1
		)
	`

	ListAllTransactionsQuery = `
		SELECT id, amount, transaction_type, description, is_fraud, created_at
		FROM transactions
		ORDER BY created_at, id
	`

	ListFraudulentTransactionsQuery = `
		SELECT id, amount, transaction_type, description, is_fraud, created_at
		FROM transactions
		WHERE is_fraud = TRUE
		ORDER BY created_at, id
	`

	// Транзакции, которые еще не прошли классификацию (сырые вставки из стрима)
	ListUnclassifiedTransactionsQuery = `
		SELECT id, amount, transaction_type, description, is_fraud, created_at
		FROM transactions
		WHERE is_fraud = FALSE
		ORDER BY created_at, id
	`

	AggregateRevenueQuery = `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
	`

	DashboardSummaryQuery = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_fraud),
		       COALESCE(SUM(amount), 0)
		FROM transactions
	`

	// FailedPayment queries
	CreateFailedPaymentQuery = `
		INSERT INTO failed_payments (id, amount, error_message, customer_ref, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	ListFailedPaymentsQuery = `
		SELECT id, amount, error_message, customer_ref, email, created_at
		FROM failed_payments
		ORDER BY created_at, id
	`

	// Webhook dedup queries
	WebhookEventExistsQuery = `
		SELECT EXISTS(
			SELECT 1
			FROM webhook_events
			WHERE event_id = $1
		)
	`

	CreateWebhookEventQuery = `
		INSERT INTO webhook_events (event_id, event_type, received_at)
		VALUES ($1, $2, $3)
	`

	// Operator queries
	CreateOperatorQuery = `
		INSERT INTO operators (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, created_at, updated_at
	`

	GetOperatorByUsernameQuery = `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM operators
		WHERE username = $1
	`

	CheckOperatorExistsByUsernameQuery = `
		SELECT EXISTS(
			SELECT 1
			FROM operators
			WHERE username = $1
		)
	`

	CheckOperatorExistsByEmailQuery = `
		SELECT EXISTS(
			SELECT 1
			FROM operators
			WHERE email = $1
		)
	`
)
