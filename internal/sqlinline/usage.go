package sqlinline

const QInsertUsageLog = `--sql c90145ab-c41d-4edf-87e1-7f7fc10a34f9
insert into usage_logs (id, owner_id, action, credits, cost_estimate, metadata, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::int, $5::text::numeric, coalesce($6::jsonb, '{}'::jsonb), now());
`
