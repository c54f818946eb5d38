package sqlinline

const QStatsSummary = `--sql ae7e1900-e818-476e-8f2c-88e4bfd239a7
select
    (select count(*) from accounts),
    (select count(*) from generation_jobs where status = 'completed'),
    (select count(*) from generation_jobs where status = 'failed'),
    (select count(*) from generation_jobs where status in ('pending', 'processing')),
    (select count(*) from captions),
    (select coalesce(sum(credits), 0) from transactions where status = 'approved'),
    (select coalesce(sum(amount), 0)::text from transactions where status = 'approved'),
    (select coalesce(sum(cost_estimate), 0)::text from usage_logs where created_at > now() - interval '24 hours');
`
