package sqlinline

const QInsertTransaction = `--sql 12d3aaf4-26dd-408f-b284-953ad9bd75cd
insert into transactions (id, owner_id, package_id, amount, currency, credits, status, created_at, updated_at)
values ($1::uuid, $2::uuid, $3::text, $4::text::numeric, $5::text, $6::int, 'pending', now(), now())
returning created_at, updated_at;
`

const QSetTransactionPreference = `--sql 89e4aa05-4b29-483f-970b-74c5d8954ccf
update transactions
set preference_id = $2::text, updated_at = now()
where id = $1::uuid;
`

const QSelectTransaction = `--sql 8930d986-bf24-4d1d-b1ba-a637930575b5
select id, owner_id, package_id, amount::text, currency, credits, status,
       coalesce(external_reference, ''), coalesce(preference_id, ''), coalesce(method, ''), created_at, updated_at
from transactions
where id = $1::uuid
limit 1;
`

// QTransitionTransaction only applies when the row is still in the expected
// status, which makes webhook replays no-ops.
const QTransitionTransaction = `--sql f535e637-32bc-42b0-8378-3583955abbfa
update transactions
set status = $3::text,
    external_reference = coalesce(nullif($4::text, ''), external_reference),
    method = coalesce(nullif($5::text, ''), method),
    updated_at = now()
where id = $1::uuid and status = $2::text;
`

const QListTransactions = `--sql f579f806-83a5-4414-a92e-6a009dd86e53
select id, owner_id, package_id, amount::text, currency, credits, status,
       coalesce(external_reference, ''), coalesce(preference_id, ''), coalesce(method, ''), created_at, updated_at
from transactions
order by created_at desc
limit $1::int offset $2::int;
`
