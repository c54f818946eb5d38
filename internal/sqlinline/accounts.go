package sqlinline

// QInsertAccount creates the account on first sight and returns the stored row
// either way, so concurrent first requests converge on one signup grant.
const QInsertAccount = `--sql 8840fa66-45f6-4c8c-9f0e-9c0e3323602e
with ins as (
    insert into accounts (id, email, display_name, credits, role, created_at, updated_at)
    values ($1::uuid, $2::text, $3::text, $4::int, $5::text, now(), now())
    on conflict (id) do nothing
    returning id, email, display_name, credits, role, created_at, updated_at
)
select id, email, display_name, credits, role, created_at, updated_at from ins
union all
select id, email, display_name, credits, role, created_at, updated_at
from accounts
where id = $1::uuid and not exists (select 1 from ins);
`

const QSelectAccountByID = `--sql 9144eb03-324b-477a-a3f8-5de0c06db44c
select id, email, display_name, credits, role, created_at, updated_at
from accounts
where id = $1::uuid
limit 1;
`

const QSelectAccountByEmail = `--sql 8e78cab4-8b9c-4697-b832-3f4de9070381
select id, email, display_name, credits, role, created_at, updated_at
from accounts
where lower(email) = lower($1::text)
limit 1;
`

const QListAccounts = `--sql 29fbabae-bd3e-4957-9066-a3759d6bb173
select id, email, display_name, credits, role, created_at, updated_at
from accounts
order by created_at desc
limit $1::int offset $2::int;
`

const QSetAccountRole = `--sql e8d075b3-4c2c-4f19-9037-541fcf86567c
update accounts
set role = $2::text, updated_at = now()
where id = $1::uuid;
`

// QDebitCredits is the conditional decrement: zero rows means the balance
// does not cover the amount (or the account does not exist).
const QDebitCredits = `--sql 34634c88-1b13-44e3-91db-57967d059366
update accounts
set credits = credits - $2::int, updated_at = now()
where id = $1::uuid and credits >= $2::int
returning credits;
`

const QCreditCredits = `--sql 11262f16-d4d4-4719-96d0-666c975f72c4
update accounts
set credits = credits + $2::int, updated_at = now()
where id = $1::uuid
returning credits;
`

const QDebitCreditsClamped = `--sql 595def03-32e0-48e2-9180-bc7ef8ac2809
update accounts
set credits = greatest(credits - $2::int, 0), updated_at = now()
where id = $1::uuid
returning credits;
`

const QSelectAccountCredits = `--sql 53758476-b552-4ce2-8dec-d93a94aa350c
select credits from accounts where id = $1::uuid;
`
