package sqlinline

const QInsertJob = `--sql 7d3e99fa-e836-4ac2-8f04-79d76d1e0c18
insert into generation_jobs (id, owner_id, prompt, style, quality, format, status, credits_used, created_at, updated_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::text, 'pending', $7::int, now(), now())
returning created_at, updated_at;
`

const QSelectJobForOwner = `--sql 5714cacb-fdfa-4778-be7e-705cfb828f52
select id, owner_id, prompt, style, quality, format, status,
       coalesce(result_url, ''), coalesce(error_message, ''), credits_used, created_at, updated_at
from generation_jobs
where id = $1::uuid and owner_id = $2::uuid
limit 1;
`

const QListJobsByOwner = `--sql 5d410ec7-1b95-4343-acbb-a5524ee71145
select id, owner_id, prompt, style, quality, format, status,
       coalesce(result_url, ''), coalesce(error_message, ''), credits_used, created_at, updated_at
from generation_jobs
where owner_id = $1::uuid
order by created_at desc
limit $2::int;
`

const QMarkJobProcessing = `--sql 19dc2287-38c6-4298-a4ee-45fbcc0192bb
update generation_jobs
set status = 'processing', updated_at = now()
where id = $1::uuid and status = 'pending';
`

const QCompleteJob = `--sql 9a914c74-a06c-44ed-b3fb-7e41f76e7d3c
update generation_jobs
set status = 'completed', result_url = $2::text, error_message = null, updated_at = now()
where id = $1::uuid and status in ('pending', 'processing');
`

const QFailJob = `--sql bcc31430-7104-46f1-9e55-2b484042d1c0
update generation_jobs
set status = 'failed', error_message = $2::text, updated_at = now()
where id = $1::uuid and status in ('pending', 'processing')
returning id, owner_id, prompt, style, quality, format, status,
          coalesce(result_url, ''), coalesce(error_message, ''), credits_used, created_at, updated_at;
`

const QListStaleJobs = `--sql 6e10d28d-4537-4f71-bc41-a57e671e15ff
select id, owner_id, prompt, style, quality, format, status,
       coalesce(result_url, ''), coalesce(error_message, ''), credits_used, created_at, updated_at
from generation_jobs
where status in ('pending', 'processing') and updated_at < $1::timestamptz
order by updated_at asc
limit $2::int;
`
