package sqlinline

// QBootstrapSchema creates the tables on an empty database. It is idempotent
// and meant for local setups; production schemas are managed elsewhere.
const QBootstrapSchema = `--sql 144db15d-2d44-4f80-ab39-96cf32326b1f
create table if not exists accounts (
    id uuid primary key,
    email text not null,
    display_name text not null default '',
    credits int not null default 0 check (credits >= 0),
    role text not null default 'user' check (role in ('user', 'admin')),
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists accounts_email_idx on accounts (lower(email));

create table if not exists generation_jobs (
    id uuid primary key,
    owner_id uuid not null references accounts(id),
    prompt text not null,
    style text not null,
    quality text not null,
    format text not null default 'square',
    status text not null check (status in ('pending', 'processing', 'completed', 'failed')),
    result_url text,
    error_message text,
    credits_used int not null default 0,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists generation_jobs_owner_idx on generation_jobs (owner_id, created_at desc);
create index if not exists generation_jobs_open_idx on generation_jobs (updated_at) where status in ('pending', 'processing');

create table if not exists captions (
    id uuid primary key,
    owner_id uuid not null references accounts(id),
    caption text not null,
    hashtags text[] not null default '{}',
    cta text not null default '',
    tone text not null,
    platform text not null,
    goal text not null default '',
    credits_used int not null default 0,
    created_at timestamptz not null default now()
);
create index if not exists captions_owner_idx on captions (owner_id, created_at desc);

create table if not exists transactions (
    id uuid primary key,
    owner_id uuid not null references accounts(id),
    package_id text not null,
    amount numeric(12, 2) not null,
    currency text not null,
    credits int not null,
    status text not null check (status in ('pending', 'approved', 'failed', 'refunded')),
    external_reference text,
    preference_id text,
    method text,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create table if not exists usage_logs (
    id uuid primary key,
    owner_id uuid not null references accounts(id),
    action text not null,
    credits int not null default 0,
    cost_estimate numeric(12, 6) not null default 0,
    metadata jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now()
);
`
